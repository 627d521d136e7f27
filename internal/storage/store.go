// Package storage persists workouts. One workout per calendar date is
// enforced by a UNIQUE constraint, so concurrent creates for the same day
// leave exactly one row.
package storage

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/models"
)

// Store is the persistence boundary used by the tracker.
//
// FindWorkoutByDate returns models.ErrNotFound when the day is empty.
// FindAllWorkouts returns workouts newest first.
// CreateWorkout returns models.ErrDuplicateDate when the day already has a
// workout and leaves that workout untouched.
// Connection failures wrap models.ErrUnavailable.
type Store interface {
	FindWorkoutByDate(ctx context.Context, date civil.Date) (*models.WorkoutRecord, error)
	FindAllWorkouts(ctx context.Context) ([]models.WorkoutRecord, error)
	CreateWorkout(ctx context.Context, w models.NewWorkout) (*models.WorkoutRecord, error)
	Ping(ctx context.Context) error
	Close() error
}
