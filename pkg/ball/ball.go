package ball

import (
	"image"
	"image/color"

	"github.com/Robogera/pitchtrack/pkg/gring"
	"github.com/muesli/gamut"
	"gocv.io/x/gocv"
)

const DefaultTrailLength = 50

var (
	OldestColor = color.RGBA{255, 0, 0, 255}
	NewestColor = color.RGBA{0, 255, 0, 255}
)

// Raw detected ball positions of one clip. Frames
// without a ball leave the trail untouched
type Tracker struct {
	trail     *gring.Ring[image.Point]
	thickness int
}

func NewTracker(trail_length int) *Tracker {
	return &Tracker{
		trail:     gring.NewRing[image.Point](trail_length),
		thickness: 3,
	}
}

func (t *Tracker) Update(position image.Point, detected bool) {
	if detected {
		t.trail.Push(position)
	}
}

func (t *Tracker) Trail() []image.Point {
	return t.trail.Slice()
}

func (t *Tracker) Last() (image.Point, bool) {
	return t.trail.Newest()
}

// Colour of the i-th of n points, blending from OldestColor
// to NewestColor with the position in the trail
func segmentColors(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = NewestColor
		return out
	}
	for i, c := range gamut.Blends(OldestColor, NewestColor, n) {
		r, g, b, _ := c.RGBA()
		out[i] = color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255}
	}
	return out
}

func (t *Tracker) DrawTrajectory(m *gocv.Mat) {
	points := t.Trail()
	if len(points) < 2 {
		return
	}
	colors := segmentColors(len(points))
	for i := 1; i < len(points); i++ {
		gocv.Line(m, points[i-1], points[i], colors[i], t.thickness)
	}
}
