// Package history finds the previous workout for a template and answers rep
// hints from it.
package history

import (
	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/codec"
	"github.com/claude/liftlog/internal/models"
)

// Previous is the most recent earlier workout for a template. A nil
// *Previous is valid and has no values.
type Previous struct {
	workout models.Workout
	byName  map[string]int
}

// Latest selects, among records with the given template name, the one with
// the greatest date strictly before target. Records on target itself never
// qualify. The input order does not matter.
func Latest(records []models.WorkoutRecord, templateName string, target civil.Date) (models.WorkoutRecord, bool) {
	var (
		best  models.WorkoutRecord
		found bool
	)
	for _, r := range records {
		if r.TemplateName != templateName || r.Date == target || !r.Date.Before(target) {
			continue
		}
		if !found || r.Date.After(best.Date) {
			best, found = r, true
		}
	}
	return best, found
}

// Resolve finds and decodes the previous workout. It returns (nil, nil) when
// no earlier workout uses the template. A record that fails to decode
// returns a nil *Previous together with the CorruptRecord error, so callers
// can log it and carry on without hints.
func Resolve(records []models.WorkoutRecord, templateName string, target civil.Date) (*Previous, error) {
	rec, ok := Latest(records, templateName, target)
	if !ok {
		return nil, nil
	}
	w, err := codec.DecodeWorkout(rec)
	if err != nil {
		return nil, err
	}
	return New(w), nil
}

// New wraps a decoded workout. When two exercises share a name the first one
// answers.
func New(w models.Workout) *Previous {
	p := &Previous{workout: w, byName: make(map[string]int, len(w.Exercises))}
	for i, e := range w.Exercises {
		if _, dup := p.byName[e.Name]; !dup {
			p.byName[e.Name] = i
		}
	}
	return p
}

// Workout returns the previous workout.
func (p *Previous) Workout() (models.Workout, bool) {
	if p == nil {
		return models.Workout{}, false
	}
	return p.workout, true
}

// Date returns the previous workout's date, or the zero date.
func (p *Previous) Date() civil.Date {
	if p == nil {
		return civil.Date{}
	}
	return p.workout.Date
}

// Reps returns the reps recorded for the named exercise at (weightIdx,
// setIdx). It reports false when there is no previous workout, no exercise of
// that name, or the indices fall outside its matrix.
func (p *Previous) Reps(exercise string, weightIdx, setIdx int) (int, bool) {
	if p == nil {
		return 0, false
	}
	i, ok := p.byName[exercise]
	if !ok {
		return 0, false
	}
	reps := p.workout.Exercises[i].Reps
	if !reps.InRange(weightIdx, setIdx) {
		return 0, false
	}
	return reps.At(weightIdx, setIdx), true
}

// Hint is a previous rep count for one cell. Set is false when there is none.
type Hint struct {
	Reps int  `json:"reps"`
	Set  bool `json:"set"`
}

// Hints builds a hint grid matching each exercise's rep matrix.
func (p *Previous) Hints(exercises []models.Exercise) [][][]Hint {
	out := make([][][]Hint, len(exercises))
	for i, e := range exercises {
		out[i] = make([][]Hint, e.Reps.Rows())
		for w := range out[i] {
			out[i][w] = make([]Hint, e.Reps.Cols())
			for s := range out[i][w] {
				reps, ok := p.Reps(e.Name, w, s)
				out[i][w][s] = Hint{Reps: reps, Set: ok}
			}
		}
	}
	return out
}
