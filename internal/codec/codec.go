// Package codec converts exercise weights and reps between their decoded form
// and the JSON text kept in storage. It is the only place that knows stored
// fields may arrive either as text or already parsed.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/claude/liftlog/internal/models"
)

// EncodeWeights returns the stored text for a weight list.
func EncodeWeights(weights []float64) (string, error) {
	if weights == nil {
		weights = []float64{}
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return "", fmt.Errorf("weight %d: invalid value %v", i, w)
		}
	}
	data, err := json.Marshal(weights)
	if err != nil {
		return "", fmt.Errorf("encoding weights: %w", err)
	}
	return string(data), nil
}

// EncodeReps returns the stored text for a rep matrix.
func EncodeReps(reps models.RepMatrix) (string, error) {
	data, err := json.Marshal(reps.ToRows())
	if err != nil {
		return "", fmt.Errorf("encoding reps: %w", err)
	}
	return string(data), nil
}

// EncodeExercise returns the stored form of an exercise. The rep matrix must
// match the exercise's weights and set count.
func EncodeExercise(e models.Exercise) (models.ExerciseRecord, error) {
	if err := checkShape(e.Reps, len(e.Weights), e.Sets); err != nil {
		return models.ExerciseRecord{}, fmt.Errorf("exercise %q: %w", e.Name, err)
	}
	weights, err := EncodeWeights(e.Weights)
	if err != nil {
		return models.ExerciseRecord{}, fmt.Errorf("exercise %q: %w", e.Name, err)
	}
	reps, err := EncodeReps(e.Reps)
	if err != nil {
		return models.ExerciseRecord{}, fmt.Errorf("exercise %q: %w", e.Name, err)
	}
	return models.ExerciseRecord{Name: e.Name, Sets: e.Sets, Weights: weights, Reps: reps}, nil
}

// EncodeExercises encodes every exercise in order.
func EncodeExercises(exercises []models.Exercise) ([]models.ExerciseRecord, error) {
	out := make([]models.ExerciseRecord, 0, len(exercises))
	for _, e := range exercises {
		rec, err := EncodeExercise(e)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeWeights normalizes a weight list. v may be stored text (string,
// []byte, json.RawMessage holding an array or a JSON string of one) or an
// already decoded list ([]float64, []int, []any of numbers).
// A []float64 is returned unchanged.
func DecodeWeights(v any) ([]float64, error) {
	switch x := v.(type) {
	case []float64:
		if err := checkWeights(x); err != nil {
			return nil, corrupt("weights", x, err)
		}
		return x, nil
	case []int:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		if err := checkWeights(out); err != nil {
			return nil, corrupt("weights", x, err)
		}
		return out, nil
	case []any:
		out := make([]float64, len(x))
		for i, item := range x {
			f, ok := number(item)
			if !ok {
				return nil, corrupt("weights", x, fmt.Errorf("element %d is %T, not a number", i, item))
			}
			out[i] = f
		}
		if err := checkWeights(out); err != nil {
			return nil, corrupt("weights", x, err)
		}
		return out, nil
	case string, []byte, json.RawMessage:
		raw, err := text(x)
		if err != nil {
			return nil, corrupt("weights", x, err)
		}
		var out []float64
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, corrupt("weights", x, err)
		}
		if out == nil {
			return nil, corrupt("weights", x, fmt.Errorf("null weights"))
		}
		if err := checkWeights(out); err != nil {
			return nil, corrupt("weights", x, err)
		}
		return out, nil
	default:
		return nil, corrupt("weights", v, fmt.Errorf("unsupported type %T", v))
	}
}

// DecodeReps normalizes a rep matrix from stored text or an already decoded
// value (models.RepMatrix, [][]int, []any of []any of whole numbers).
// A models.RepMatrix is returned unchanged.
func DecodeReps(v any) (models.RepMatrix, error) {
	switch x := v.(type) {
	case models.RepMatrix:
		return x, nil
	case *models.RepMatrix:
		if x == nil {
			return models.RepMatrix{}, corrupt("reps", v, fmt.Errorf("nil matrix"))
		}
		return *x, nil
	case [][]int:
		m, err := models.RepMatrixFromRows(x)
		if err != nil {
			return models.RepMatrix{}, corrupt("reps", x, err)
		}
		return m, nil
	case []any:
		rows := make([][]int, len(x))
		for w, item := range x {
			cells, ok := item.([]any)
			if !ok {
				return models.RepMatrix{}, corrupt("reps", x, fmt.Errorf("row %d is %T, not a list", w, item))
			}
			rows[w] = make([]int, len(cells))
			for s, c := range cells {
				f, ok := number(c)
				if !ok || f != math.Trunc(f) || f > math.MaxInt32 {
					return models.RepMatrix{}, corrupt("reps", x, fmt.Errorf("cell [%d][%d] is not a whole number", w, s))
				}
				rows[w][s] = int(f)
			}
		}
		m, err := models.RepMatrixFromRows(rows)
		if err != nil {
			return models.RepMatrix{}, corrupt("reps", x, err)
		}
		return m, nil
	case string, []byte, json.RawMessage:
		raw, err := text(x)
		if err != nil {
			return models.RepMatrix{}, corrupt("reps", x, err)
		}
		var rows [][]int
		if err := json.Unmarshal(raw, &rows); err != nil {
			return models.RepMatrix{}, corrupt("reps", x, err)
		}
		if rows == nil {
			return models.RepMatrix{}, corrupt("reps", x, fmt.Errorf("null reps"))
		}
		m, err := models.RepMatrixFromRows(rows)
		if err != nil {
			return models.RepMatrix{}, corrupt("reps", x, err)
		}
		return m, nil
	default:
		return models.RepMatrix{}, corrupt("reps", v, fmt.Errorf("unsupported type %T", v))
	}
}

// DecodeExercise decodes a stored exercise and checks that its rep matrix is
// shaped [len(weights)][sets].
func DecodeExercise(rec models.ExerciseRecord) (models.Exercise, error) {
	weights, err := DecodeWeights(rec.Weights)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("exercise %q: %w", rec.Name, err)
	}
	reps, err := DecodeReps(rec.Reps)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("exercise %q: %w", rec.Name, err)
	}
	if err := checkShape(reps, len(weights), rec.Sets); err != nil {
		return models.Exercise{}, fmt.Errorf("exercise %q: %w", rec.Name, corrupt("reps", rec.Reps, err))
	}
	return models.Exercise{Name: rec.Name, Sets: rec.Sets, Weights: weights, Reps: reps}, nil
}

// DecodeWorkout decodes every exercise of a stored workout.
func DecodeWorkout(rec models.WorkoutRecord) (models.Workout, error) {
	w := models.Workout{
		ID:           rec.ID,
		Date:         rec.Date,
		TemplateName: rec.TemplateName,
		Exercises:    make([]models.Exercise, 0, len(rec.Exercises)),
		CreatedAt:    rec.CreatedAt,
	}
	for _, er := range rec.Exercises {
		e, err := DecodeExercise(er)
		if err != nil {
			return models.Workout{}, fmt.Errorf("workout %s: %w", rec.Date, err)
		}
		w.Exercises = append(w.Exercises, e)
	}
	return w, nil
}

func checkWeights(weights []float64) error {
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("weight %d: invalid value %v", i, w)
		}
	}
	return nil
}

func checkShape(reps models.RepMatrix, weights, sets int) error {
	if reps.Rows() != weights {
		return fmt.Errorf("reps has %d weight rows, want %d", reps.Rows(), weights)
	}
	if reps.Rows() > 0 && reps.Cols() != sets {
		return fmt.Errorf("reps has %d sets, want %d", reps.Cols(), sets)
	}
	return nil
}

// text returns the JSON array bytes held by v. A JSON string literal (the
// field was stringified twice, as API clients sometimes send it) is unwrapped.
func text(v any) ([]byte, error) {
	var raw []byte
	switch x := v.(type) {
	case string:
		raw = []byte(x)
	case []byte:
		raw = x
	case json.RawMessage:
		raw = x
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	return raw, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func corrupt(field string, v any, err error) error {
	var raw string
	switch x := v.(type) {
	case string:
		raw = x
	case []byte:
		raw = string(x)
	case json.RawMessage:
		raw = string(x)
	default:
		raw = fmt.Sprintf("%v", v)
	}
	return &models.CorruptRecordError{Field: field, Raw: raw, Err: err}
}
