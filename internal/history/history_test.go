package history

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/models"
)

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func record(date civil.Date, template string, exercises ...models.ExerciseRecord) models.WorkoutRecord {
	return models.WorkoutRecord{Date: date, TemplateName: template, Exercises: exercises}
}

var bench = models.ExerciseRecord{Name: "Bench", Sets: 3, Weights: "[135,155]", Reps: "[[8,8,6],[5,4,0]]"}

// TestLatestPicksMostRecentEarlierDate verifies the 2024-03-08 workout wins
// over 2024-03-03 for a 2024-03-10 target, whatever the input order.
func TestLatestPicksMostRecentEarlierDate(t *testing.T) {
	target := day(2024, 3, 10)
	orders := [][]models.WorkoutRecord{
		{record(day(2024, 3, 3), "Push Day"), record(day(2024, 3, 8), "Push Day")},
		{record(day(2024, 3, 8), "Push Day"), record(day(2024, 3, 3), "Push Day")},
	}
	for _, recs := range orders {
		got, ok := Latest(recs, "Push Day", target)
		if !ok {
			t.Fatal("expected a previous workout")
		}
		if got.Date != day(2024, 3, 8) {
			t.Errorf("date = %s, want 2024-03-08", got.Date)
		}
	}
}

// TestLatestExcludesTargetAndFuture verifies the in-progress day's own
// workout and later days never count as previous.
func TestLatestExcludesTargetAndFuture(t *testing.T) {
	target := day(2024, 3, 10)
	recs := []models.WorkoutRecord{
		record(target, "Push Day"),
		record(day(2024, 3, 12), "Push Day"),
		record(day(2024, 3, 9), "Leg Day"),
	}
	if got, ok := Latest(recs, "Push Day", target); ok {
		t.Errorf("unexpected previous %s", got.Date)
	}

	p, err := Resolve(recs, "Push Day", target)
	if err != nil || p != nil {
		t.Errorf("Resolve = %v, %v; want nil, nil", p, err)
	}
	if _, err := Resolve(nil, "Push Day", target); err != nil {
		t.Errorf("Resolve(nil) error: %v", err)
	}
}

// TestLatestSkipsGapsAcrossTemplates verifies other templates between two
// matching dates do not interfere.
func TestLatestSkipsGapsAcrossTemplates(t *testing.T) {
	recs := []models.WorkoutRecord{
		record(day(2024, 3, 9), "Leg Day"),
		record(day(2024, 2, 20), "Push Day"),
		record(day(2024, 3, 1), "Push Day"),
		record(day(2024, 3, 5), "Pull Day"),
	}
	got, ok := Latest(recs, "Push Day", day(2024, 3, 10))
	if !ok || got.Date != day(2024, 3, 1) {
		t.Errorf("got %s, %v; want 2024-03-01", got.Date, ok)
	}
}

// TestRepsLookup verifies hits, misses by name and out-of-range indices all
// answer without panicking.
func TestRepsLookup(t *testing.T) {
	p, err := Resolve([]models.WorkoutRecord{record(day(2024, 3, 8), "Push Day", bench)}, "Push Day", day(2024, 3, 10))
	if err != nil || p == nil {
		t.Fatalf("Resolve = %v, %v", p, err)
	}

	tests := []struct {
		name     string
		exercise string
		w, s     int
		want     int
		wantOK   bool
	}{
		{"hit", "Bench", 0, 2, 6, true},
		{"recorded zero", "Bench", 1, 2, 0, true},
		{"unknown exercise", "Squat", 0, 0, 0, false},
		{"extra weight row", "Bench", 2, 0, 0, false},
		{"extra set", "Bench", 0, 3, 0, false},
		{"negative", "Bench", -1, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Reps(tt.exercise, tt.w, tt.s)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Reps = %d, %v; want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestNilPreviousHasNoValues verifies a nil Previous answers "no value".
func TestNilPreviousHasNoValues(t *testing.T) {
	var p *Previous
	if _, ok := p.Reps("Bench", 0, 0); ok {
		t.Error("nil previous returned a value")
	}
	if _, ok := p.Workout(); ok {
		t.Error("nil previous returned a workout")
	}
	if !p.Date().IsZero() {
		t.Error("nil previous has a date")
	}

	reps, _ := models.NewRepMatrix(1, 2)
	hints := p.Hints([]models.Exercise{{Name: "Bench", Sets: 2, Weights: []float64{135}, Reps: reps}})
	if len(hints) != 1 || len(hints[0]) != 1 || len(hints[0][0]) != 2 {
		t.Fatalf("hints shape = %v", hints)
	}
	if hints[0][0][0].Set || hints[0][0][1].Set {
		t.Error("nil previous produced hints")
	}
}

// TestHintsFollowCurrentShape verifies hints cover the current grid, with
// extra rows reported as unset.
func TestHintsFollowCurrentShape(t *testing.T) {
	p, _ := Resolve([]models.WorkoutRecord{record(day(2024, 3, 8), "Push Day", bench)}, "Push Day", day(2024, 3, 10))
	reps, _ := models.NewRepMatrix(3, 3)
	hints := p.Hints([]models.Exercise{{Name: "Bench", Sets: 3, Weights: []float64{135, 155, 175}, Reps: reps}})
	if !hints[0][0][0].Set || hints[0][0][0].Reps != 8 {
		t.Errorf("hint[0][0] = %+v, want 8", hints[0][0][0])
	}
	if hints[0][2][0].Set {
		t.Error("third weight row should have no hint")
	}
}

// TestResolveCorruptRecord verifies a corrupt previous workout yields no
// hints plus a CorruptRecord error rather than a panic.
func TestResolveCorruptRecord(t *testing.T) {
	bad := models.ExerciseRecord{Name: "Bench", Sets: 3, Weights: "[135", Reps: "[[1,2,3]]"}
	p, err := Resolve([]models.WorkoutRecord{record(day(2024, 3, 8), "Push Day", bad)}, "Push Day", day(2024, 3, 10))
	if p != nil {
		t.Error("expected nil previous for corrupt record")
	}
	if !errors.Is(err, models.ErrCorruptRecord) {
		t.Errorf("err = %v, want ErrCorruptRecord", err)
	}
	if _, ok := p.Reps("Bench", 0, 0); ok {
		t.Error("corrupt previous returned a value")
	}
}
