package models

import (
	"encoding/json"
	"fmt"
)

// RepMatrix is a fixed-shape grid of rep counts indexed [weight row][set column].
// The shape is set at construction and never changes; cells are >= 0.
// Copies share cells, use Clone for an independent matrix.
type RepMatrix struct {
	rows  int
	cols  int
	cells []int
}

// NewRepMatrix returns a zero-filled matrix of the given shape.
func NewRepMatrix(rows, cols int) (RepMatrix, error) {
	if rows < 0 || cols < 0 {
		return RepMatrix{}, fmt.Errorf("invalid rep matrix shape %dx%d", rows, cols)
	}
	return RepMatrix{rows: rows, cols: cols, cells: make([]int, rows*cols)}, nil
}

// RepMatrixFromRows builds a matrix from nested rows. Rows must all have the
// same length and every value must be non-negative.
func RepMatrixFromRows(rows [][]int) (RepMatrix, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	m, err := NewRepMatrix(len(rows), cols)
	if err != nil {
		return RepMatrix{}, err
	}
	for w, row := range rows {
		if len(row) != cols {
			return RepMatrix{}, fmt.Errorf("row %d has %d sets, want %d", w, len(row), cols)
		}
		for s, v := range row {
			if v < 0 {
				return RepMatrix{}, fmt.Errorf("negative reps %d at [%d][%d]", v, w, s)
			}
			m.cells[w*cols+s] = v
		}
	}
	return m, nil
}

// Rows returns the number of weight rows.
func (m RepMatrix) Rows() int { return m.rows }

// Cols returns the number of set columns.
func (m RepMatrix) Cols() int { return m.cols }

// InRange reports whether (w, s) addresses a cell.
func (m RepMatrix) InRange(w, s int) bool {
	return w >= 0 && w < m.rows && s >= 0 && s < m.cols
}

// At returns the reps at (w, s), or 0 when out of range.
func (m RepMatrix) At(w, s int) int {
	if !m.InRange(w, s) {
		return 0
	}
	return m.cells[w*m.cols+s]
}

// Set records reps at (w, s).
func (m *RepMatrix) Set(w, s, reps int) error {
	if !m.InRange(w, s) {
		return fmt.Errorf("cell [%d][%d] outside %dx%d matrix", w, s, m.rows, m.cols)
	}
	if reps < 0 {
		return fmt.Errorf("negative reps %d", reps)
	}
	m.cells[w*m.cols+s] = reps
	return nil
}

// Any reports whether any cell is greater than zero.
func (m RepMatrix) Any() bool {
	for _, v := range m.cells {
		if v > 0 {
			return true
		}
	}
	return false
}

// Total returns the sum of all cells.
func (m RepMatrix) Total() int {
	total := 0
	for _, v := range m.cells {
		total += v
	}
	return total
}

// Clone returns an independent copy.
func (m RepMatrix) Clone() RepMatrix {
	return RepMatrix{rows: m.rows, cols: m.cols, cells: append([]int(nil), m.cells...)}
}

// Equal reports whether both matrices have the same shape and values.
func (m RepMatrix) Equal(o RepMatrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// ToRows returns the matrix as freshly allocated nested rows.
func (m RepMatrix) ToRows() [][]int {
	out := make([][]int, m.rows)
	for w := range out {
		out[w] = append([]int(nil), m.cells[w*m.cols:(w+1)*m.cols]...)
	}
	return out
}

func (m RepMatrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToRows())
}

func (m *RepMatrix) UnmarshalJSON(data []byte) error {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := RepMatrixFromRows(rows)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
