package person

import (
	"fmt"
	"image"
)

// Outcome of reconciling one identity in a frame, used for logging
type Status interface {
	String() string
}

type StatusNew struct {
	coord image.Point
}

func (s StatusNew) String() string {
	return fmt.Sprintf("New: first seen at %dx%d", s.coord.X, s.coord.Y)
}

type StatusReidentified struct {
	match Match
}

func (s StatusReidentified) String() string {
	return fmt.Sprintf("Reidentified: %.2fpx from prediction, similarity: %.4f, score: %.4f",
		s.match.Distance, s.match.Similarity, s.match.Score)
}

type StatusInactive struct {
	coord image.Point
	frame int
}

func (s StatusInactive) String() string {
	return fmt.Sprintf("Inactive: lost at frame %d, last known coordinate: %dx%d", s.frame, s.coord.X, s.coord.Y)
}

type StatusExpired struct {
	frame int
}

func (s StatusExpired) String() string {
	return fmt.Sprintf("Expired: purged at frame %d", s.frame)
}

func NewStatusNew(coord image.Point) Status { return StatusNew{coord: coord} }
func NewStatusReidentified(m Match) Status  { return StatusReidentified{match: m} }
func NewStatusInactive(coord image.Point, frame int) Status {
	return StatusInactive{coord: coord, frame: frame}
}
func NewStatusExpired(frame int) Status { return StatusExpired{frame: frame} }
