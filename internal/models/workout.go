package models

import (
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Prescription is the planned shape of one exercise in a template.
type Prescription struct {
	Name    string    `json:"name" yaml:"name"`
	Sets    int       `json:"sets" yaml:"sets"`
	Weights []float64 `json:"weights" yaml:"weights"`
}

// Exercise is an exercise with its rep matrix, either being filled in or
// already saved. Reps is shaped [len(Weights)][Sets].
type Exercise struct {
	Name    string    `json:"name"`
	Sets    int       `json:"sets"`
	Weights []float64 `json:"weights"`
	Reps    RepMatrix `json:"reps"`
}

// Reshape returns a copy of e with new weights and set count. The rep matrix
// is rebuilt at the new shape; cells present in both shapes keep their value.
func (e Exercise) Reshape(weights []float64, sets int) (Exercise, error) {
	reps, err := NewRepMatrix(len(weights), sets)
	if err != nil {
		return Exercise{}, err
	}
	for w := 0; w < min(reps.Rows(), e.Reps.Rows()); w++ {
		for s := 0; s < min(reps.Cols(), e.Reps.Cols()); s++ {
			reps.cells[w*reps.cols+s] = e.Reps.At(w, s)
		}
	}
	return Exercise{
		Name:    e.Name,
		Sets:    sets,
		Weights: append([]float64(nil), weights...),
		Reps:    reps,
	}, nil
}

// Workout is a saved workout with decoded exercises.
type Workout struct {
	ID           uuid.UUID  `json:"id"`
	Date         civil.Date `json:"date"`
	TemplateName string     `json:"template_name"`
	Exercises    []Exercise `json:"exercises"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ExerciseRecord is an exercise as stored: weights and reps are JSON text.
type ExerciseRecord struct {
	Name    string
	Sets    int
	Weights string
	Reps    string
}

// WorkoutRecord is a workout row with its exercise rows, as read from storage.
type WorkoutRecord struct {
	ID           uuid.UUID
	Date         civil.Date
	TemplateName string
	Exercises    []ExerciseRecord
	CreatedAt    time.Time
}

// NewWorkout is the input to a store's CreateWorkout.
type NewWorkout struct {
	Date         civil.Date
	TemplateName string
	Exercises    []ExerciseRecord
}

// FormatWeight renders a weight label. Zero is bodyweight.
func FormatWeight(weight float64) string {
	if weight == 0 {
		return "BW"
	}
	return strconv.FormatFloat(weight, 'f', -1, 64) + "lbs"
}

// FormatDisplayDate renders a date the long way, e.g. "Tuesday, March 5, 2024".
func FormatDisplayDate(d civil.Date) string {
	if !d.IsValid() {
		return fmt.Sprintf("invalid date %s", d)
	}
	return d.In(time.UTC).Format("Monday, January 2, 2006")
}
