package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrShapeMismatch = errors.New("solution shape mismatch")

// Solution is a dense binary matrix. Rows are workers, columns are tasks.
type Solution struct {
	Rows  int     `json:"rows"`
	Cols  int     `json:"cols"`
	Cells []uint8 `json:"cells"`
}

// NewSolution returns an all-zero rows x cols matrix.
func NewSolution(rows, cols int) Solution {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("invalid solution shape %dx%d", rows, cols))
	}
	return Solution{Rows: rows, Cols: cols, Cells: make([]uint8, rows*cols)}
}

// Ones returns a rows x cols matrix with every cell set.
func Ones(rows, cols int) Solution {
	s := NewSolution(rows, cols)
	for i := range s.Cells {
		s.Cells[i] = 1
	}
	return s
}

// FromRows builds a solution from nested rows. Any non-zero value is stored as 1.
func FromRows(rows [][]int) (Solution, error) {
	if len(rows) == 0 {
		return Solution{}, nil
	}
	cols := len(rows[0])
	s := NewSolution(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return Solution{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, r, len(row), cols)
		}
		for c, v := range row {
			if v != 0 {
				s.Cells[r*cols+c] = 1
			}
		}
	}
	return s, nil
}

func (s Solution) At(r, c int) uint8 {
	return s.Cells[s.index(r, c)]
}

func (s Solution) Set(r, c int, v uint8) {
	if v != 0 {
		v = 1
	}
	s.Cells[s.index(r, c)] = v
}

func (s Solution) Flip(r, c int) {
	i := s.index(r, c)
	s.Cells[i] ^= 1
}

// Assigned reports whether cell (r, c) is set.
func (s Solution) Assigned(r, c int) bool {
	return s.At(r, c) != 0
}

// Clone returns a deep copy.
func (s Solution) Clone() Solution {
	return Solution{
		Rows:  s.Rows,
		Cols:  s.Cols,
		Cells: append([]uint8(nil), s.Cells...),
	}
}

func (s Solution) RowSum(r int) int {
	sum := 0
	for _, v := range s.Cells[r*s.Cols : (r+1)*s.Cols] {
		sum += int(v)
	}
	return sum
}

func (s Solution) ColSum(c int) int {
	sum := 0
	for r := 0; r < s.Rows; r++ {
		sum += int(s.Cells[r*s.Cols+c])
	}
	return sum
}

// SameShape reports whether both matrices have identical dimensions.
func (s Solution) SameShape(o Solution) bool {
	return s.Rows == o.Rows && s.Cols == o.Cols
}

func (s Solution) Equal(o Solution) bool {
	if !s.SameShape(o) || len(s.Cells) != len(o.Cells) {
		return false
	}
	for i := range s.Cells {
		if s.Cells[i] != o.Cells[i] {
			return false
		}
	}
	return true
}

// Validate checks the backing slice against the declared shape and that
// every cell is binary.
func (s Solution) Validate() error {
	if s.Rows < 0 || s.Cols < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrShapeMismatch, s.Rows, s.Cols)
	}
	if len(s.Cells) != s.Rows*s.Cols {
		return fmt.Errorf("%w: %d cells for %dx%d", ErrShapeMismatch, len(s.Cells), s.Rows, s.Cols)
	}
	for i, v := range s.Cells {
		if v > 1 {
			return fmt.Errorf("non-binary cell %d: %d", i, v)
		}
	}
	return nil
}

func (s Solution) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for r := 0; r < s.Rows; r++ {
		if r > 0 {
			b.WriteString("\n ")
		}
		b.WriteByte('[')
		for c := 0; c < s.Cols; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte('0' + s.At(r, c))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

func (s Solution) index(r, c int) int {
	if r < 0 || r >= s.Rows || c < 0 || c >= s.Cols {
		panic(fmt.Sprintf("cell (%d,%d) out of range for %dx%d solution", r, c, s.Rows, s.Cols))
	}
	return r*s.Cols + c
}
