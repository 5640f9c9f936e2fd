package ball

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestTrailNeverExceedsCapacity(t *testing.T) {
	tr := NewTracker(5)
	for i := range 20 {
		tr.Update(image.Pt(i, i), true)
		assert.LessOrEqual(t, len(tr.Trail()), 5)
	}
	assert.Equal(t, []image.Point{
		image.Pt(15, 15), image.Pt(16, 16), image.Pt(17, 17), image.Pt(18, 18), image.Pt(19, 19),
	}, tr.Trail(), "oldest points are evicted first")
}

func TestMissingFramesLeaveNoEntry(t *testing.T) {
	tr := NewTracker(DefaultTrailLength)
	tr.Update(image.Pt(10, 10), true)
	tr.Update(image.Pt(12, 11), true)
	tr.Update(image.Point{}, false)
	tr.Update(image.Pt(40, 30), true)

	assert.Equal(t, []image.Point{image.Pt(10, 10), image.Pt(12, 11), image.Pt(40, 30)}, tr.Trail())
	last, ok := tr.Last()
	assert.True(t, ok)
	assert.Equal(t, image.Pt(40, 30), last)
}

func TestSegmentColorsRunOldToNew(t *testing.T) {
	colors := segmentColors(10)
	assert.Len(t, colors, 10)
	assert.Greater(t, colors[0].R, colors[9].R)
	assert.Less(t, colors[0].G, colors[9].G)
	assert.Equal(t, NewestColor, segmentColors(1)[0])
}

func TestDrawTrajectory(t *testing.T) {
	img := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer img.Close()

	tr := NewTracker(DefaultTrailLength)
	tr.Update(image.Pt(10, 50), true)
	tr.Update(image.Pt(90, 50), true)
	tr.DrawTrajectory(&img)

	// the single segment is drawn in the newest colour, BGR order
	px := img.GetVecbAt(50, 50)
	assert.Less(t, px[2], uint8(40))
	assert.Greater(t, px[1], uint8(200))
}
