package gmat

import (
	"math/rand/v2"
	"testing"
)

func coolMatrix(r, c, n int) *Mat[int] {
	m := NewMat[int](r, c)
	for ind_r := range r {
		for ind_c := range c {
			m.Set(ind_r, ind_c, rand.IntN(n))
		}
	}
	return m
}

func TestMap(t *testing.T) {
	m := coolMatrix(4, 6, 100)
	mapped := Map(m, func(e int, r, c int) float64 {
		return float64(e) / 100.0
	})
	t.Log("\n" + m.String())
	t.Log("\n" + mapped.String())
	for r := range 4 {
		for c := range 6 {
			if float64(m.At(r, c))/100.0 != mapped.At(r, c) {
				t.Fatalf("Mapping mismatch at (%d, %d)", r, c)
			}
		}
	}
}

func TestTo2dPadsToSquare(t *testing.T) {
	m := coolMatrix(2, 5, 10)
	sq := m.To2d(-1)
	if len(sq) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(sq))
	}
	for r, row := range sq {
		if len(row) != 5 {
			t.Fatalf("Row %d has %d columns", r, len(row))
		}
		for c, v := range row {
			if r >= 2 && v != -1 {
				t.Fatalf("Padding expected at (%d, %d), got %d", r, c, v)
			}
			if r < 2 && v != m.At(r, c) {
				t.Fatalf("Value mismatch at (%d, %d)", r, c)
			}
		}
	}
}

func TestSetOutOfBounds(t *testing.T) {
	m := NewMat[int](2, 2)
	if err := m.Set(2, 0, 1); err == nil {
		t.Fatal("Expected out of bounds error")
	}
}
