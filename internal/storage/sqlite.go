package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/codec"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS workouts (
	id            TEXT PRIMARY KEY,
	date          TEXT NOT NULL UNIQUE,
	template_name TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS workout_exercises (
	workout_id TEXT NOT NULL REFERENCES workouts (id),
	position   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	sets       INTEGER NOT NULL,
	weights    TEXT NOT NULL,
	reps       TEXT NOT NULL,
	PRIMARY KEY (workout_id, position)
);`

// SQLiteDB implements Store on a local SQLite file for single-user setups.
type SQLiteDB struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check: *SQLiteDB satisfies Store.
var _ Store = (*SQLiteDB)(nil)

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteDB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, sqliteError("creating schema", err)
	}
	return &SQLiteDB{db: db, now: time.Now}, nil
}

// Ping checks the database handle.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging sqlite: %w: %w", models.ErrUnavailable, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// CreateWorkout inserts a workout and its exercises in one transaction.
func (s *SQLiteDB) CreateWorkout(ctx context.Context, nw models.NewWorkout) (*models.WorkoutRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, sqliteError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM workouts WHERE date = ?`, nw.Date.String()).Scan(&count); err != nil {
		return nil, sqliteError("checking date", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("creating workout for %s: %w", nw.Date, models.ErrDuplicateDate)
	}

	rec := &models.WorkoutRecord{
		ID:           uuid.New(),
		Date:         nw.Date,
		TemplateName: nw.TemplateName,
		Exercises:    nw.Exercises,
		CreatedAt:    s.now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO workouts (id, date, template_name, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID.String(), rec.Date.String(), rec.TemplateName, rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, sqliteError("inserting workout", err)
	}

	for i, e := range nw.Exercises {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO workout_exercises (workout_id, position, name, sets, weights, reps) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID.String(), i, e.Name, e.Sets, e.Weights, e.Reps)
		if err != nil {
			return nil, sqliteError("inserting exercise", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, sqliteError("committing workout", err)
	}
	return rec, nil
}

// FindWorkoutByDate retrieves the workout saved on date.
func (s *SQLiteDB) FindWorkoutByDate(ctx context.Context, date civil.Date) (*models.WorkoutRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, template_name, created_at FROM workouts WHERE date = ?`, date.String())
	rec, err := scanSQLiteWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workout for %s: %w", date, models.ErrNotFound)
	}
	if err != nil {
		return nil, sqliteError("querying workout", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT workout_id, name, sets, weights, reps
		 FROM workout_exercises
		 WHERE workout_id = ?
		 ORDER BY position ASC`,
		rec.ID.String())
	if err != nil {
		return nil, sqliteError("querying exercises", err)
	}
	defer rows.Close()

	byWorkout, err := scanExerciseRows(rows)
	if err != nil {
		return nil, sqliteError("scanning exercises", err)
	}
	rec.Exercises = byWorkout[rec.ID]
	return &rec, nil
}

// FindAllWorkouts retrieves every workout, newest first, with exercises.
func (s *SQLiteDB) FindAllWorkouts(ctx context.Context) ([]models.WorkoutRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, template_name, created_at FROM workouts ORDER BY date DESC`)
	if err != nil {
		return nil, sqliteError("querying workouts", err)
	}

	var result []models.WorkoutRecord
	for rows.Next() {
		rec, err := scanSQLiteWorkout(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, sqliteError("reading workouts", err)
	}
	// Release the single connection before the next query.
	rows.Close()

	exRows, err := s.db.QueryContext(ctx,
		`SELECT workout_id, name, sets, weights, reps
		 FROM workout_exercises
		 ORDER BY workout_id, position ASC`)
	if err != nil {
		return nil, sqliteError("querying exercises", err)
	}
	defer exRows.Close()

	byWorkout, err := scanExerciseRows(exRows)
	if err != nil {
		return nil, sqliteError("scanning exercises", err)
	}
	for i := range result {
		result[i].Exercises = byWorkout[result[i].ID]
	}
	return result, nil
}

func scanSQLiteWorkout(row interface{ Scan(dest ...any) error }) (models.WorkoutRecord, error) {
	var (
		rec       models.WorkoutRecord
		day       string
		createdAt string
	)
	if err := row.Scan(&rec.ID, &day, &rec.TemplateName, &createdAt); err != nil {
		return models.WorkoutRecord{}, err
	}
	d, err := codec.NormalizeDate(day)
	if err != nil {
		return models.WorkoutRecord{}, fmt.Errorf("workout %s: %w", rec.ID, err)
	}
	rec.Date = d
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.WorkoutRecord{}, fmt.Errorf("workout %s: created_at: %w", rec.ID, err)
	}
	return rec, nil
}

// sqliteError maps SQLite result codes onto the storage error taxonomy.
func sqliteError(op string, err error) error {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		if sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return fmt.Errorf("%s: %w", op, models.ErrDuplicateDate)
		}
		switch sqlErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
			return fmt.Errorf("%s: %w: %w", op, models.ErrUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, models.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
