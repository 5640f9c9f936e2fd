package indexed

import "time"

// Value tagged with its frame index and
// position on the video timeline
type Indexed[T any] struct {
	id     uint64
	offset time.Duration
	value  T
}

func NewIndexed[T any](id uint64, offset time.Duration, value T) Indexed[T] {
	return Indexed[T]{id, offset, value}
}

func (i Indexed[T]) Less(other Indexed[T]) bool { return i.id < other.id }
func (i Indexed[T]) Id() uint64                 { return i.id }
func (i Indexed[T]) Offset() time.Duration      { return i.offset }
func (i Indexed[T]) Seconds() float64           { return i.offset.Seconds() }
func (i Indexed[T]) Value() T                   { return i.value }
