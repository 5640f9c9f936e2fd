// Package person keeps long-lived player identities on top of the
// short-horizon tracker: position history, velocity, an appearance feature
// bank, an inactive registry for re-identification and the click selection.
package person

import (
	"fmt"
	"image"
	"math"

	"github.com/Robogera/pitchtrack/pkg/feature"
	"github.com/Robogera/pitchtrack/pkg/gring"
)

// Persistent identity of one physical player. Never
// reused within a session
type Id uint64

func (id Id) String() string { return fmt.Sprintf("#%d", id) }

type Position struct {
	Id    Id
	Point image.Point
}

type Identity struct {
	id           Id
	history      *gring.Ring[image.Point]
	features     *gring.Ring[feature.Descriptor]
	velocity     image.Point
	has_velocity bool
}

func newIdentity(id Id, history_length, bank_size int) *Identity {
	return &Identity{
		id:       id,
		history:  gring.NewRing[image.Point](history_length),
		features: gring.NewRing[feature.Descriptor](bank_size),
	}
}

func (p *Identity) Id() Id { return p.id }

// Oldest first
func (p *Identity) History() []image.Point {
	return p.history.Slice()
}

func (p *Identity) LastPosition() (image.Point, bool) {
	return p.history.Newest()
}

// Frame to frame delta, undefined until the second update
func (p *Identity) Velocity() (image.Point, bool) {
	return p.velocity, p.has_velocity
}

func (p *Identity) Features() []feature.Descriptor {
	return p.features.Slice()
}

func (p *Identity) push(position image.Point, descriptor feature.Descriptor) {
	if last, ok := p.history.Newest(); ok {
		p.velocity = position.Sub(last)
		p.has_velocity = true
	}
	p.history.Push(position)
	if descriptor != nil {
		p.features.Push(descriptor)
	}
}

// State kept for an identity that dropped out of the frame
type snapshot struct {
	last_position image.Point
	velocity      image.Point
	features      []feature.Descriptor
	last_seen     int
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
