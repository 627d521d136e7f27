package session

import (
	"errors"
	"sync"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/models"
)

var pushDay = []models.Prescription{
	{Name: "Bench", Sets: 3, Weights: []float64{135, 155}},
}

// TestMaterializeShapeAndOrder verifies one zero-filled exercise per
// prescription, in order, shaped [len(weights)][sets].
func TestMaterializeShapeAndOrder(t *testing.T) {
	prescriptions := []models.Prescription{
		{Name: "Squat", Sets: 5, Weights: []float64{225}},
		{Name: "Bench", Sets: 3, Weights: []float64{135, 155}},
		{Name: "Pull-ups", Sets: 4, Weights: []float64{0, 25, 45}},
	}
	got, err := Materialize(prescriptions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(prescriptions) {
		t.Fatalf("len = %d, want %d", len(got), len(prescriptions))
	}
	for i, p := range prescriptions {
		e := got[i]
		if e.Name != p.Name {
			t.Errorf("[%d] name = %q, want %q", i, e.Name, p.Name)
		}
		if e.Reps.Rows() != len(p.Weights) || e.Reps.Cols() != p.Sets {
			t.Errorf("[%d] shape = %dx%d, want %dx%d", i, e.Reps.Rows(), e.Reps.Cols(), len(p.Weights), p.Sets)
		}
		if e.Reps.Any() {
			t.Errorf("[%d] has nonzero cells", i)
		}
	}

	// Weights are copied, not aliased to the template.
	got[0].Weights[0] = 1
	if prescriptions[0].Weights[0] != 225 {
		t.Error("materialized weights alias the prescription")
	}

	empty, err := Materialize(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("Materialize(nil) = %v, %v", empty, err)
	}
}

// TestMaterializeInvalid verifies prescriptions without sets or weights are
// rejected with ErrInvalidTemplate.
func TestMaterializeInvalid(t *testing.T) {
	tests := []struct {
		name string
		p    models.Prescription
	}{
		{"zero sets", models.Prescription{Name: "Bench", Sets: 0, Weights: []float64{135}}},
		{"negative sets", models.Prescription{Name: "Bench", Sets: -2, Weights: []float64{135}}},
		{"no weights", models.Prescription{Name: "Bench", Sets: 3}},
		{"negative weight", models.Prescription{Name: "Bench", Sets: 3, Weights: []float64{-10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Materialize([]models.Prescription{pushDay[0], tt.p})
			if !errors.Is(err, models.ErrInvalidTemplate) {
				t.Errorf("err = %v, want ErrInvalidTemplate", err)
			}
		})
	}
}

// TestCanSave verifies an all-zero session is never saveable and a single
// nonzero cell anywhere always is.
func TestCanSave(t *testing.T) {
	exercises, _ := Materialize([]models.Prescription{
		{Name: "Squat", Sets: 5, Weights: []float64{225}},
		{Name: "Bench", Sets: 3, Weights: []float64{135, 155}},
	})
	if CanSave(exercises) {
		t.Fatal("all-zero session should not be saveable")
	}
	if CanSave(nil) {
		t.Fatal("empty session should not be saveable")
	}

	for ex := range exercises {
		for w := 0; w < exercises[ex].Reps.Rows(); w++ {
			for s := 0; s < exercises[ex].Reps.Cols(); s++ {
				fresh, _ := Materialize([]models.Prescription{
					{Name: "Squat", Sets: 5, Weights: []float64{225}},
					{Name: "Bench", Sets: 3, Weights: []float64{135, 155}},
				})
				_ = fresh[ex].Reps.Set(w, s, 1)
				if !CanSave(fresh) {
					t.Errorf("cell [%d][%d][%d] = 1 should be saveable", ex, w, s)
				}
			}
		}
	}
}

// TestDraftPushDay verifies the reference scenario on a draft.
func TestDraftPushDay(t *testing.T) {
	d, err := NewDraft(civil.Date{Year: 2024, Month: 3, Day: 10}, "Push Day", pushDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.CanSave() {
		t.Error("new draft should not be saveable")
	}
	if err := d.SetReps(0, 1, 0, 8); err != nil {
		t.Fatalf("SetReps: %v", err)
	}
	if !d.CanSave() {
		t.Error("draft with one rep should be saveable")
	}
	got := d.Exercises()[0].Reps.ToRows()
	want := [][]int{{0, 0, 0}, {8, 0, 0}}
	for w := range want {
		for s := range want[w] {
			if got[w][s] != want[w][s] {
				t.Fatalf("reps = %v, want %v", got, want)
			}
		}
	}

	if err := d.SetReps(1, 0, 0, 1); !errors.Is(err, models.ErrInvalidCell) {
		t.Errorf("exercise out of range: err = %v, want ErrInvalidCell", err)
	}
	if err := d.SetReps(0, 2, 0, 1); !errors.Is(err, models.ErrInvalidCell) {
		t.Errorf("weight row out of range: err = %v, want ErrInvalidCell", err)
	}
	if err := d.SetReps(0, 0, 0, -1); !errors.Is(err, models.ErrInvalidCell) {
		t.Errorf("negative reps: err = %v, want ErrInvalidCell", err)
	}
}

// TestDraftSnapshotIsolated verifies Exercises returns a copy callers can
// mutate without touching the draft.
func TestDraftSnapshotIsolated(t *testing.T) {
	d, _ := NewDraft(civil.Date{Year: 2024, Month: 3, Day: 10}, "Push Day", pushDay)
	snap := d.Exercises()
	_ = snap[0].Reps.Set(0, 0, 9)
	if d.Reps(0, 0, 0) != 0 {
		t.Error("snapshot mutation leaked into draft")
	}
}

// TestDraftReshape verifies reshaping rebuilds the matrix and rejects
// invalid shapes.
func TestDraftReshape(t *testing.T) {
	d, _ := NewDraft(civil.Date{Year: 2024, Month: 3, Day: 10}, "Push Day", pushDay)
	_ = d.SetReps(0, 0, 1, 6)
	if err := d.Reshape(0, []float64{135}, 4); err != nil {
		t.Fatalf("Reshape: %v", err)
	}
	ex := d.Exercises()[0]
	if ex.Reps.Rows() != 1 || ex.Reps.Cols() != 4 || ex.Sets != 4 {
		t.Errorf("shape = %dx%d sets=%d", ex.Reps.Rows(), ex.Reps.Cols(), ex.Sets)
	}
	if ex.Reps.At(0, 1) != 6 {
		t.Errorf("kept cell = %d, want 6", ex.Reps.At(0, 1))
	}
	if err := d.Reshape(0, nil, 3); !errors.Is(err, models.ErrInvalidTemplate) {
		t.Errorf("err = %v, want ErrInvalidTemplate", err)
	}
}

// TestDraftConcurrentEdits verifies concurrent cell writes and completion
// reads are race-free. Run with -race.
func TestDraftConcurrentEdits(t *testing.T) {
	d, _ := NewDraft(civil.Date{Year: 2024, Month: 3, Day: 10}, "Push Day", pushDay)

	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		for s := 0; s < 3; s++ {
			wg.Add(2)
			go func(w, s int) {
				defer wg.Done()
				_ = d.SetReps(0, w, s, w+s+1)
			}(w, s)
			go func() {
				defer wg.Done()
				_ = d.CanSave()
				_ = d.Exercises()
			}()
		}
	}
	wg.Wait()

	if !d.CanSave() {
		t.Error("draft should be saveable after edits")
	}
	if total := d.Exercises()[0].Reps.Total(); total != 1+2+3+2+3+4 {
		t.Errorf("total = %d, want 15", total)
	}
}
