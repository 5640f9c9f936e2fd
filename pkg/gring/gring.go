package gring

import (
	"iter"
)

// Fixed capacity FIFO. Pushing into a full ring
// overwrites the oldest element
type Ring[T any] struct {
	l   int
	s   []T
	pos int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		l:   0,
		s:   make([]T, capacity),
		pos: 0,
	}
}

func (r *Ring[T]) Size() int { return r.l }
func (r *Ring[T]) Cap() int  { return len(r.s) }

func (r *Ring[T]) Push(e T) {
	r.s[r.pos] = e
	r.pos++
	if r.pos >= len(r.s) {
		r.pos = 0
	}
	if r.l < len(r.s) {
		r.l++
	}
}

// Index of the i-th element counting from the oldest one
func (r *Ring[T]) index(i int) int {
	start := r.pos - r.l
	if start < 0 {
		start += len(r.s)
	}
	return (start + i) % len(r.s)
}

// Returns the most recently pushed element
func (r *Ring[T]) Newest() (T, bool) {
	var zero T
	if r.l == 0 {
		return zero, false
	}
	return r.s[r.index(r.l-1)], true
}

// Returns the element that will be evicted next
func (r *Ring[T]) Oldest() (T, bool) {
	var zero T
	if r.l == 0 {
		return zero, false
	}
	return r.s[r.index(0)], true
}

// Oldest to newest
func (r *Ring[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range r.l {
			if !yield(i, r.s[r.index(i)]) {
				return
			}
		}
	}
}

// Newest to oldest
func (r *Ring[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := r.l - 1; i >= 0; i-- {
			if !yield(r.s[r.index(i)]) {
				return
			}
		}
	}
}

// Copy of the contents, oldest first
func (r *Ring[T]) Slice() []T {
	out := make([]T, 0, r.l)
	for _, e := range r.All() {
		out = append(out, e)
	}
	return out
}

func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.s {
		r.s[i] = zero
	}
	r.l, r.pos = 0, 0
}
