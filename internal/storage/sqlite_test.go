package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftlog/internal/models"
)

func openTestSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "liftlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func pushDay(date civil.Date) models.NewWorkout {
	return models.NewWorkout{
		Date:         date,
		TemplateName: "Push Day",
		Exercises: []models.ExerciseRecord{
			{Name: "Bench Press", Sets: 3, Weights: "[135,155]", Reps: "[[0,0,0],[8,0,0]]"},
			{Name: "Dips", Sets: 2, Weights: "[0]", Reps: "[[10,9]]"},
		},
	}
}

// TestSQLiteCreateAndFind verifies a created workout reads back with its
// exercises in order.
func TestSQLiteCreateAndFind(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)
	date := civil.Date{Year: 2024, Month: time.March, Day: 5}

	created, err := db.CreateWorkout(ctx, pushDay(date))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := db.FindWorkoutByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, date, got.Date)
	assert.Equal(t, "Push Day", got.TemplateName)
	require.Len(t, got.Exercises, 2)
	assert.Equal(t, "Bench Press", got.Exercises[0].Name)
	assert.Equal(t, "[135,155]", got.Exercises[0].Weights)
	assert.Equal(t, "[[0,0,0],[8,0,0]]", got.Exercises[0].Reps)
	assert.Equal(t, "Dips", got.Exercises[1].Name)
}

// TestSQLiteFindMissing verifies an empty day reports ErrNotFound.
func TestSQLiteFindMissing(t *testing.T) {
	db := openTestSQLite(t)
	_, err := db.FindWorkoutByDate(context.Background(), civil.Date{Year: 2024, Month: time.March, Day: 6})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// TestSQLiteDuplicateDate verifies a second create for a used day fails and
// leaves the stored workout untouched.
func TestSQLiteDuplicateDate(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)
	date := civil.Date{Year: 2024, Month: time.March, Day: 5}

	first, err := db.CreateWorkout(ctx, pushDay(date))
	require.NoError(t, err)

	second := models.NewWorkout{
		Date:         date,
		TemplateName: "Leg Day",
		Exercises:    []models.ExerciseRecord{{Name: "Squat", Sets: 5, Weights: "[225]", Reps: "[[5,5,5,5,5]]"}},
	}
	_, err = db.CreateWorkout(ctx, second)
	require.ErrorIs(t, err, models.ErrDuplicateDate)

	got, err := db.FindWorkoutByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Push Day", got.TemplateName)
	assert.Len(t, got.Exercises, 2)

	all, err := db.FindAllWorkouts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// TestSQLiteConcurrentCreate verifies racing creates for one day leave one row.
func TestSQLiteConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)
	date := civil.Date{Year: 2024, Month: time.March, Day: 5}

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.CreateWorkout(ctx, pushDay(date))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, models.ErrDuplicateDate):
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dups)
}

// TestSQLiteFindAllOrder verifies workouts come back newest first.
func TestSQLiteFindAllOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	for _, d := range []civil.Date{
		{Year: 2024, Month: time.March, Day: 3},
		{Year: 2024, Month: time.March, Day: 8},
		{Year: 2024, Month: time.February, Day: 28},
	} {
		_, err := db.CreateWorkout(ctx, pushDay(d))
		require.NoError(t, err)
	}

	all, err := db.FindAllWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 8}, all[0].Date)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 3}, all[1].Date)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 28}, all[2].Date)
	for _, w := range all {
		assert.Len(t, w.Exercises, 2)
	}
}

// TestSQLiteEmptyExercises verifies a workout without exercises round-trips.
func TestSQLiteEmptyExercises(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)
	date := civil.Date{Year: 2024, Month: time.April, Day: 1}

	_, err := db.CreateWorkout(ctx, models.NewWorkout{Date: date, TemplateName: "Rest"})
	require.NoError(t, err)

	got, err := db.FindWorkoutByDate(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, got.Exercises)
	require.NoError(t, db.Ping(ctx))
}
