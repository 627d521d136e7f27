// Package session builds editable workout sessions from template
// prescriptions and decides when a draft may be saved.
package session

import (
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

// Validate checks that every prescription has at least one set and one
// weight. Errors wrap models.ErrInvalidTemplate.
func Validate(prescriptions []models.Prescription) error {
	for i, p := range prescriptions {
		if p.Sets < 1 {
			return fmt.Errorf("exercise %d (%q): sets = %d: %w", i, p.Name, p.Sets, models.ErrInvalidTemplate)
		}
		if len(p.Weights) == 0 {
			return fmt.Errorf("exercise %d (%q): no weights: %w", i, p.Name, models.ErrInvalidTemplate)
		}
		for _, w := range p.Weights {
			if w < 0 {
				return fmt.Errorf("exercise %d (%q): negative weight %v: %w", i, p.Name, w, models.ErrInvalidTemplate)
			}
		}
	}
	return nil
}

// Materialize returns one exercise per prescription, in order, each with a
// zero-filled rep matrix shaped [len(weights)][sets].
func Materialize(prescriptions []models.Prescription) ([]models.Exercise, error) {
	if err := Validate(prescriptions); err != nil {
		return nil, err
	}
	out := make([]models.Exercise, len(prescriptions))
	for i, p := range prescriptions {
		reps, err := models.NewRepMatrix(len(p.Weights), p.Sets)
		if err != nil {
			return nil, fmt.Errorf("exercise %d (%q): %w", i, p.Name, err)
		}
		out[i] = models.Exercise{
			Name:    p.Name,
			Sets:    p.Sets,
			Weights: append([]float64(nil), p.Weights...),
			Reps:    reps,
		}
	}
	return out, nil
}

// CanSave reports whether any cell of any exercise holds a rep count above
// zero. One logged rep anywhere is enough.
func CanSave(exercises []models.Exercise) bool {
	for _, e := range exercises {
		if e.Reps.Any() {
			return true
		}
	}
	return false
}
