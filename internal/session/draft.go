package session

import (
	"fmt"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/models"
)

// Draft is the in-progress workout for one date. It is safe for concurrent
// use: a cell write never interleaves with the reads behind CanSave or
// Exercises.
type Draft struct {
	date     civil.Date
	template string

	mu        sync.RWMutex
	exercises []models.Exercise
}

// NewDraft materializes the template's prescriptions into a draft for date.
func NewDraft(date civil.Date, template string, prescriptions []models.Prescription) (*Draft, error) {
	exercises, err := Materialize(prescriptions)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", template, err)
	}
	return &Draft{date: date, template: template, exercises: exercises}, nil
}

// DraftFrom wraps already built exercises, e.g. decoded from a request body.
// The exercises are cloned.
func DraftFrom(date civil.Date, template string, exercises []models.Exercise) *Draft {
	return &Draft{date: date, template: template, exercises: cloneExercises(exercises)}
}

// Date returns the calendar day the draft is for.
func (d *Draft) Date() civil.Date { return d.date }

// TemplateName returns the template the draft was built from.
func (d *Draft) TemplateName() string { return d.template }

// SetReps records reps for exercise ex at weight row w and set column s.
func (d *Draft) SetReps(ex, w, s, reps int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ex < 0 || ex >= len(d.exercises) {
		return fmt.Errorf("exercise %d out of range: %w", ex, models.ErrInvalidCell)
	}
	if err := d.exercises[ex].Reps.Set(w, s, reps); err != nil {
		return fmt.Errorf("exercise %d (%q): %v: %w", ex, d.exercises[ex].Name, err, models.ErrInvalidCell)
	}
	return nil
}

// Reps returns the reps recorded at a cell, or 0 when out of range.
func (d *Draft) Reps(ex, w, s int) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if ex < 0 || ex >= len(d.exercises) {
		return 0
	}
	return d.exercises[ex].Reps.At(w, s)
}

// Reshape replaces the weights and set count of exercise ex. The rep matrix
// is rebuilt at the new shape.
func (d *Draft) Reshape(ex int, weights []float64, sets int) error {
	if err := Validate([]models.Prescription{{Sets: sets, Weights: weights}}); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if ex < 0 || ex >= len(d.exercises) {
		return fmt.Errorf("exercise %d out of range: %w", ex, models.ErrInvalidCell)
	}
	reshaped, err := d.exercises[ex].Reshape(weights, sets)
	if err != nil {
		return err
	}
	d.exercises[ex] = reshaped
	return nil
}

// CanSave reports whether the draft has at least one logged rep.
func (d *Draft) CanSave() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return CanSave(d.exercises)
}

// Exercises returns a deep copy of the current exercises.
func (d *Draft) Exercises() []models.Exercise {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cloneExercises(d.exercises)
}

func cloneExercises(in []models.Exercise) []models.Exercise {
	out := make([]models.Exercise, len(in))
	for i, e := range in {
		out[i] = models.Exercise{
			Name:    e.Name,
			Sets:    e.Sets,
			Weights: append([]float64(nil), e.Weights...),
			Reps:    e.Reps.Clone(),
		}
	}
	return out
}
