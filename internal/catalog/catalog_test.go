package catalog

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/claude/liftlog/internal/models"
	"go.uber.org/multierr"
)

const templatesYAML = `
Push Day:
  - name: Bench
    sets: 3
    weights: [135, 155]
  - name: Overhead Press
    sets: 3
    weights: [95]
  - name: Dips
    sets: 3
    weights: [0]
  - name: Lateral Raise
    sets: 2
    weights: [15, 20]
Leg Day:
  - name: Squat
    sets: 5
    weights: [225]
Broken:
  - name: Curl
    sets: 0
    weights: [30]
Also Broken:
  - name: Row
    sets: 3
    weights: []
`

// workoutJSON is the legacy workout.json template layout.
const workoutJSON = `{
  "Pull Day": [
    {"name": "Deadlift", "sets": 1, "weights": [315]},
    {"name": "Pull-ups", "sets": 3, "weights": [0, 25]}
  ],
  "Arms": [
    {"name": "Curl", "sets": 3, "weights": [30, 35]}
  ]
}`

// TestParseKeepsFileOrder verifies template names come back in file order,
// not map order.
func TestParseKeepsFileOrder(t *testing.T) {
	c, err := Parse([]byte(templatesYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Push Day", "Leg Day"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
	bench, ok := c.Get("Push Day")
	if !ok {
		t.Fatal("Push Day missing")
	}
	if bench[0].Name != "Bench" || bench[0].Sets != 3 || !reflect.DeepEqual(bench[0].Weights, []float64{135, 155}) {
		t.Errorf("bench = %+v", bench[0])
	}
}

// TestParseRejectsOnlyBadTemplates verifies an invalid template is dropped
// without taking the rest of the catalog down.
func TestParseRejectsOnlyBadTemplates(t *testing.T) {
	c, err := Parse([]byte(templatesYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get("Broken"); ok {
		t.Error("Broken should have been rejected")
	}
	if _, ok := c.Get("Also Broken"); ok {
		t.Error("Also Broken should have been rejected")
	}
	errs := multierr.Errors(c.Rejected())
	if len(errs) != 2 {
		t.Fatalf("rejected = %d, want 2: %v", len(errs), c.Rejected())
	}
	for _, e := range errs {
		if !errors.Is(e, models.ErrInvalidTemplate) {
			t.Errorf("rejection %v does not wrap ErrInvalidTemplate", e)
		}
	}
}

// TestParseJSONTemplateFile verifies the legacy workout.json layout parses.
func TestParseJSONTemplateFile(t *testing.T) {
	c, err := Parse([]byte(workoutJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Names(); !reflect.DeepEqual(got, []string{"Pull Day", "Arms"}) {
		t.Errorf("names = %v", got)
	}
	if c.Rejected() != nil {
		t.Errorf("unexpected rejections: %v", c.Rejected())
	}
}

// TestParseMalformed verifies type errors in one template are isolated and a
// non-mapping document fails.
func TestParseMalformed(t *testing.T) {
	c, err := Parse([]byte("Good:\n  - {name: A, sets: 1, weights: [1]}\nBad:\n  - {name: B, sets: lots, weights: [1]}\nEmpty: []\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
	if len(multierr.Errors(c.Rejected())) != 2 {
		t.Errorf("rejected = %v", c.Rejected())
	}

	if _, err := Parse([]byte("- just\n- a list\n")); err == nil {
		t.Error("expected error for list document")
	}

	empty, err := Parse(nil)
	if err != nil || empty.Len() != 0 {
		t.Errorf("Parse(nil) = %v, %v", empty, err)
	}
}

// TestGetReturnsCopy verifies callers cannot modify the catalog through Get.
func TestGetReturnsCopy(t *testing.T) {
	c, _ := Parse([]byte(templatesYAML))
	ps, _ := c.Get("Leg Day")
	ps[0].Weights[0] = 1
	ps[0].Sets = 99
	again, _ := c.Get("Leg Day")
	if again[0].Weights[0] != 225 || again[0].Sets != 5 {
		t.Errorf("catalog was modified: %+v", again[0])
	}
	if _, ok := c.Get("Nope"); ok {
		t.Error("unknown template found")
	}
}

// TestSummaries verifies the picker preview lists at most three exercise names.
func TestSummaries(t *testing.T) {
	c, _ := Parse([]byte(templatesYAML))
	s := c.Summaries()
	if len(s) != 2 {
		t.Fatalf("summaries = %d, want 2", len(s))
	}
	if s[0].ExerciseCount != 4 || len(s[0].Preview) != 3 || s[0].More != 1 {
		t.Errorf("push summary = %+v", s[0])
	}
	if s[1].ExerciseCount != 1 || s[1].More != 0 {
		t.Errorf("leg summary = %+v", s[1])
	}
}

// TestLoad verifies loading from disk and the missing-file error.
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(templatesYAML), 0644); err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	c, err := Load(path, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), log); err == nil {
		t.Error("expected error for missing file")
	}
}
