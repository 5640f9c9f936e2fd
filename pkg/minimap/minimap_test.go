package minimap

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestMapCorners(t *testing.T) {
	p := DefaultProjection()
	frame := image.Pt(1920, 1080)
	assert.Equal(t, image.Pt(15, 15), p.Map(image.Pt(0, 0), frame))
	assert.Equal(t, image.Pt(285, 185), p.Map(frame, frame))
	assert.Equal(t, image.Pt(150, 100), p.Map(image.Pt(960, 540), frame))
}

func TestMapMonotonic(t *testing.T) {
	p := DefaultProjection()
	frame := image.Pt(1280, 720)
	prev := p.Map(image.Pt(0, 0), frame)
	for step := 1; step <= 64; step++ {
		cur := p.Map(image.Pt(step*20, step*720/64), frame)
		assert.GreaterOrEqual(t, cur.X, prev.X)
		assert.GreaterOrEqual(t, cur.Y, prev.Y)
		prev = cur
	}
}

func TestRenderDoesNotTouchTemplate(t *testing.T) {
	g := NewGenerator(DefaultProjection())
	defer g.Close()

	frame := image.Pt(640, 480)
	ball := image.Pt(320, 100)
	field := g.Render([]image.Point{{64, 48}}, &ball, frame)
	defer field.Close()

	require.Equal(t, DefaultWidth, field.Cols())
	require.Equal(t, DefaultHeight, field.Rows())

	dot := g.Projection().Map(image.Pt(64, 48), frame)
	v := field.GetVecbAt(dot.Y, dot.X)
	assert.Equal(t, PlayerColor.B, v[0])
	assert.Equal(t, PlayerColor.R, v[2])

	b := g.Projection().Map(ball, frame)
	v = field.GetVecbAt(b.Y, b.X)
	assert.Equal(t, BallColor.B, v[0])
	assert.Equal(t, BallColor.G, v[1])
	assert.Equal(t, BallColor.R, v[2])

	v = g.template.GetVecbAt(dot.Y, dot.X)
	assert.Equal(t, FieldColor.G, v[1])
}

func TestOverlay(t *testing.T) {
	g := NewGenerator(DefaultProjection())
	defer g.Close()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer img.Close()
	field := g.Render(nil, nil, image.Pt(640, 480))
	defer field.Close()

	require.NoError(t, g.Overlay(&img, field))
	// just inside the overlay's top left corner, background colour
	v := img.GetVecbAt(480-Inset-DefaultHeight+3, 640-Inset-DefaultWidth+3)
	assert.Equal(t, FieldColor.G, v[1])
	v = img.GetVecbAt(5, 5)
	assert.Zero(t, v[1])

	small := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer small.Close()
	assert.ErrorIs(t, g.Overlay(&small, field), ERR_FIELD_TOO_LARGE)
}

func TestDotSizesAndColors(t *testing.T) {
	g := NewGenerator(DefaultProjection())
	defer g.Close()

	frame := image.Pt(640, 480)
	player := image.Pt(64, 48)
	ball := image.Pt(320, 100)
	field := g.Render([]image.Point{player}, &ball, frame)
	defer field.Close()

	// cyan in BGR order
	b := g.Projection().Map(ball, frame)
	for _, dx := range []int{0, 3, 4} {
		v := field.GetVecbAt(b.Y, b.X+dx)
		assert.Equal(t, []uint8{255, 255, 0}, []uint8{v[0], v[1], v[2]}, "ball dx %d", dx)
	}
	v := field.GetVecbAt(b.Y, b.X+6)
	assert.Equal(t, FieldColor.G, v[1])

	p := g.Projection().Map(player, frame)
	v = field.GetVecbAt(p.Y, p.X+3)
	assert.Equal(t, []uint8{255, 0, 0}, []uint8{v[0], v[1], v[2]})
	v = field.GetVecbAt(p.Y, p.X+5)
	assert.Equal(t, FieldColor.G, v[1])
}

func TestGoalsAreWide(t *testing.T) {
	g := NewGenerator(DefaultProjection())
	defer g.Close()

	mid_y := DefaultHeight / 2
	// top edge of the left goal, well past the boundary line
	v := g.template.GetVecbAt(mid_y-goalHeight/2, DefaultMargin+goalWidth-5)
	assert.Equal(t, LineColor.G, v[1])
	// a tall narrow box would reach this far up
	v = g.template.GetVecbAt(mid_y-goalWidth/2+2, DefaultMargin+5)
	assert.Equal(t, FieldColor.G, v[1])
}
