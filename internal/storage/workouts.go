package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/codec"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateWorkout inserts a workout and its exercises in one transaction.
func (db *DB) CreateWorkout(ctx context.Context, nw models.NewWorkout) (*models.WorkoutRecord, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, pgError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	day := nw.Date.In(time.UTC)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM workouts WHERE date = $1)`, day).Scan(&exists); err != nil {
		return nil, pgError("checking date", err)
	}
	if exists {
		return nil, fmt.Errorf("creating workout for %s: %w", nw.Date, models.ErrDuplicateDate)
	}

	rec := &models.WorkoutRecord{
		ID:           uuid.New(),
		Date:         nw.Date,
		TemplateName: nw.TemplateName,
		Exercises:    nw.Exercises,
	}
	// A concurrent create for the same day that passed the check above loses
	// here on the UNIQUE (date) constraint.
	err = tx.QueryRow(ctx,
		`INSERT INTO workouts (id, date, template_name) VALUES ($1, $2, $3) RETURNING created_at`,
		rec.ID, day, rec.TemplateName).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, pgError("inserting workout", err)
	}

	if len(nw.Exercises) > 0 {
		query := `INSERT INTO workout_exercises (workout_id, position, name, sets, weights, reps) VALUES `
		args := make([]any, 0, len(nw.Exercises)*6)
		valueStrings := make([]string, 0, len(nw.Exercises))

		for i, e := range nw.Exercises {
			base := i * 6
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6,
			))
			args = append(args, rec.ID, i, e.Name, e.Sets, e.Weights, e.Reps)
		}

		if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
			return nil, pgError("inserting exercises", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, pgError("committing workout", err)
	}
	return rec, nil
}

// FindWorkoutByDate retrieves the workout saved on date.
func (db *DB) FindWorkoutByDate(ctx context.Context, date civil.Date) (*models.WorkoutRecord, error) {
	var (
		rec models.WorkoutRecord
		day time.Time
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, date, template_name, created_at FROM workouts WHERE date = $1`,
		date.In(time.UTC)).Scan(&rec.ID, &day, &rec.TemplateName, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("workout for %s: %w", date, models.ErrNotFound)
	}
	if err != nil {
		return nil, pgError("querying workout", err)
	}
	if rec.Date, err = codec.NormalizeDate(day); err != nil {
		return nil, fmt.Errorf("workout %s: %w", rec.ID, err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT workout_id, name, sets, weights, reps
		 FROM workout_exercises
		 WHERE workout_id = $1
		 ORDER BY position ASC`,
		rec.ID)
	if err != nil {
		return nil, pgError("querying exercises", err)
	}
	defer rows.Close()

	byWorkout, err := scanExerciseRows(rows)
	if err != nil {
		return nil, pgError("scanning exercises", err)
	}
	rec.Exercises = byWorkout[rec.ID]
	return &rec, nil
}

// FindAllWorkouts retrieves every workout, newest first, with exercises.
func (db *DB) FindAllWorkouts(ctx context.Context) ([]models.WorkoutRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, date, template_name, created_at FROM workouts ORDER BY date DESC`)
	if err != nil {
		return nil, pgError("querying workouts", err)
	}
	defer rows.Close()

	var result []models.WorkoutRecord
	for rows.Next() {
		var (
			rec models.WorkoutRecord
			day time.Time
		)
		if err := rows.Scan(&rec.ID, &day, &rec.TemplateName, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		if rec.Date, err = codec.NormalizeDate(day); err != nil {
			return nil, fmt.Errorf("workout %s: %w", rec.ID, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("reading workouts", err)
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT workout_id, name, sets, weights, reps
		 FROM workout_exercises
		 ORDER BY workout_id, position ASC`)
	if err != nil {
		return nil, pgError("querying exercises", err)
	}
	defer exRows.Close()

	byWorkout, err := scanExerciseRows(exRows)
	if err != nil {
		return nil, pgError("scanning exercises", err)
	}
	for i := range result {
		result[i].Exercises = byWorkout[result[i].ID]
	}
	return result, nil
}

// scanExerciseRows groups exercise rows by workout, keeping row order. It
// serves both pgx.Rows and *sql.Rows.
func scanExerciseRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) (map[uuid.UUID][]models.ExerciseRecord, error) {
	result := make(map[uuid.UUID][]models.ExerciseRecord)
	for rows.Next() {
		var (
			id uuid.UUID
			e  models.ExerciseRecord
		)
		if err := rows.Scan(&id, &e.Name, &e.Sets, &e.Weights, &e.Reps); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result[id] = append(result[id], e)
	}
	return result, rows.Err()
}
