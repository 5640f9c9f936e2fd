package gmat

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// Dense row-major matrix used to build
// association cost tables
type Mat[T any] struct {
	s          []T
	rows, cols int
}

// Returns a new matrix with pre-allocated
// backing slice
func NewMat[T any](r, c int) *Mat[T] {
	return &Mat[T]{
		s:    make([]T, r*c),
		rows: r,
		cols: c,
	}
}

func (m *Mat[T]) Dims() (int, int) { return m.rows, m.cols }

func (m *Mat[T]) At(r, c int) T {
	return m.s[m.cols*r+c]
}

// Set the value of element (r, c) in matrix m
func (m *Mat[T]) Set(r, c int, v T) error {
	if r < 0 || c < 0 || r >= m.rows || c >= m.cols {
		return fmt.Errorf("Out of bounds: (%d, %d) in %dx%d", r, c, m.rows, m.cols)
	}
	m.s[m.cols*r+c] = v
	return nil
}

// Maps an existing matrix into a new one via f
func Map[T, E any](m *Mat[T], f func(e T, r, c int) E) *Mat[E] {
	new_mat := NewMat[E](m.rows, m.cols)
	for r := range m.rows {
		for c := range m.cols {
			new_mat.s[m.cols*r+c] = f(m.At(r, c), r, c)
		}
	}
	return new_mat
}

// Square 2d slice padded with `pad`, the shape
// assignment solvers expect
func (m *Mat[T]) To2d(pad T) [][]T {
	n := max(m.rows, m.cols)
	out := make([][]T, n)
	for r := range n {
		out[r] = make([]T, n)
		for c := range n {
			if r < m.rows && c < m.cols {
				out[r][c] = m.At(r, c)
			} else {
				out[r][c] = pad
			}
		}
	}
	return out
}

// Pretty print
func (m *Mat[T]) Sprintf(format string) string {
	b := new(strings.Builder)
	t := tabwriter.NewWriter(b, 3, 1, 1, ' ', 0)
	for r := range m.rows {
		for c := range m.cols {
			fmt.Fprintf(t, format, m.At(r, c))
			fmt.Fprint(t, "\t")
		}
		fmt.Fprint(t, "\n")
	}
	t.Flush()
	return b.String()
}

func (m *Mat[T]) String() string {
	return m.Sprintf("%v")
}
