package gsma

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestSanity(t *testing.T) {
	sma, err := NewSMA[int](3)
	if err != nil {
		t.Fatalf("Can't create SMA: %s", err)
	}
	expected := []float64{3, 4.5, 5, 7, 9}
	for i, v := range []int{3, 6, 6, 9, 12} {
		if got := sma.Recalc(v); math.Abs(got-expected[i]) > 1e-9 {
			t.Fatalf("Step %d: expected %f, got %f", i, expected[i], got)
		}
	}
}

func TestDurations(t *testing.T) {
	sma, _ := NewSMA[time.Duration](2)
	sma.Recalc(10 * time.Millisecond)
	sma.Recalc(20 * time.Millisecond)
	avg := time.Duration(sma.Recalc(30 * time.Millisecond))
	if avg != 25*time.Millisecond {
		t.Fatalf("Expected 25ms, got %s", avg)
	}
}

func TestBadCapacity(t *testing.T) {
	if _, err := NewSMA[float32](0); !errors.Is(err, ERR_VALUE) {
		t.Fatalf("Expected ERR_VALUE, got %v", err)
	}
}
