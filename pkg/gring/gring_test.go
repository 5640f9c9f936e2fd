package gring

import (
	"slices"
	"testing"
)

func TestRing(t *testing.T) {
	r := NewRing[string](5)
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		r.Push(s)
	}
	if r.Size() != 5 {
		t.Fatalf("Expected size 5, got %d", r.Size())
	}
	if got := r.Slice(); !slices.Equal(got, []string{"b", "c", "d", "e", "f"}) {
		t.Fatalf("Wrong order: %v", got)
	}
	newest, _ := r.Newest()
	oldest, _ := r.Oldest()
	if newest != "f" || oldest != "b" {
		t.Fatalf("Wrong ends: oldest %s, newest %s", oldest, newest)
	}
	backward := slices.Collect(r.Backward())
	if !slices.Equal(backward, []string{"f", "e", "d", "c", "b"}) {
		t.Fatalf("Wrong backward order: %v", backward)
	}
}

func TestRingNeverExceedsCapacity(t *testing.T) {
	r := NewRing[int](7)
	for i := range 100 {
		r.Push(i)
		if r.Size() > r.Cap() {
			t.Fatalf("Size %d exceeds capacity %d", r.Size(), r.Cap())
		}
		oldest, _ := r.Oldest()
		if want := max(0, i-6); oldest != want {
			t.Fatalf("Oldest should be %d after pushing %d, got %d", want, i, oldest)
		}
	}
}

func TestRingEmpty(t *testing.T) {
	r := NewRing[int](3)
	if _, ok := r.Newest(); ok {
		t.Fatal("Empty ring reported a newest element")
	}
	r.Push(1)
	r.Clear()
	if r.Size() != 0 || len(r.Slice()) != 0 {
		t.Fatal("Clear left elements behind")
	}
}
