package gsma

import (
	"errors"
	"fmt"

	"github.com/Robogera/pitchtrack/pkg/gring"
	"golang.org/x/exp/constraints"
)

var (
	ERR_VALUE = errors.New("Bad value")
)

type Number interface {
	constraints.Float | constraints.Integer
}

// Simple moving average over the last `capacity` samples
type SMA[T Number] struct {
	window  *gring.Ring[T]
	average float64
}

func NewSMA[T Number](capacity int) (*SMA[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("Invalid window %d: %w", capacity, ERR_VALUE)
	}
	return &SMA[T]{window: gring.NewRing[T](capacity)}, nil
}

// Adds a sample and returns the updated average
func (s *SMA[T]) Recalc(sample T) float64 {
	n := s.window.Size()
	if n < s.window.Cap() {
		s.average += (float64(sample) - s.average) / float64(n+1)
	} else {
		evicted, _ := s.window.Oldest()
		s.average += (float64(sample) - float64(evicted)) / float64(n)
	}
	s.window.Push(sample)
	return s.average
}

func (s *SMA[T]) Show() float64 { return s.average }

func (s *SMA[T]) Samples() int { return s.window.Size() }
