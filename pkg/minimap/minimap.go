// Package minimap projects frame coordinates onto a schematic top-down
// field and renders it into a corner of the annotated frame.
package minimap

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

const (
	DefaultWidth  = 300
	DefaultHeight = 200
	DefaultMargin = 15

	// distance of the overlay from the frame corner
	Inset = 10

	centerCircleRadius = 30
	goalWidth          = 40
	goalHeight         = 15
	lineThickness      = 2
	playerRadius       = 3
	ballRadius         = 4
)

var (
	FieldColor  = color.RGBA{R: 34, G: 139, B: 34, A: 255}
	LineColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	PlayerColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	BallColor   = color.RGBA{R: 0, G: 255, B: 255, A: 255}
)

var ERR_FIELD_TOO_LARGE = errors.New("Can't fit the minimap into the frame")

type Projection struct {
	Width, Height, Margin int
}

func DefaultProjection() Projection {
	return Projection{Width: DefaultWidth, Height: DefaultHeight, Margin: DefaultMargin}
}

// Linear scaling of a frame point into the field interior. No aspect
// ratio correction
func (p Projection) Map(pt image.Point, frame image.Point) image.Point {
	if frame.X <= 0 || frame.Y <= 0 {
		return image.Pt(p.Margin, p.Margin)
	}
	return image.Pt(
		int(float64(pt.X)/float64(frame.X)*float64(p.Width-2*p.Margin))+p.Margin,
		int(float64(pt.Y)/float64(frame.Y)*float64(p.Height-2*p.Margin))+p.Margin,
	)
}

type Generator struct {
	projection Projection
	template   gocv.Mat
}

// Draws the static field once
func NewGenerator(p Projection) *Generator {
	template := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(
		float64(FieldColor.B), float64(FieldColor.G), float64(FieldColor.R), 0),
		p.Height, p.Width, gocv.MatTypeCV8UC3)

	left, top := p.Margin, p.Margin
	right, bottom := p.Width-p.Margin, p.Height-p.Margin
	mid_x, mid_y := p.Width/2, p.Height/2

	gocv.Rectangle(&template, image.Rect(left, top, right, bottom), LineColor, lineThickness)
	gocv.Line(&template, image.Pt(mid_x, top), image.Pt(mid_x, bottom), LineColor, lineThickness)
	gocv.Circle(&template, image.Pt(mid_x, mid_y), centerCircleRadius, LineColor, lineThickness)
	gocv.Rectangle(&template,
		image.Rect(left, mid_y-goalHeight/2, left+goalWidth, mid_y+goalHeight/2),
		LineColor, lineThickness)
	gocv.Rectangle(&template,
		image.Rect(right-goalWidth, mid_y-goalHeight/2, right, mid_y+goalHeight/2),
		LineColor, lineThickness)

	return &Generator{projection: p, template: template}
}

func (g *Generator) Projection() Projection { return g.projection }

func (g *Generator) Close() error {
	return g.template.Close()
}

// Fresh copy of the field with one dot per player and the ball on top.
// Caller owns the returned Mat
func (g *Generator) Render(players []image.Point, ball *image.Point, frame image.Point) gocv.Mat {
	field := g.template.Clone()
	for _, p := range players {
		gocv.Circle(&field, g.projection.Map(p, frame), playerRadius, PlayerColor, -1)
	}
	if ball != nil {
		gocv.Circle(&field, g.projection.Map(*ball, frame), ballRadius, BallColor, -1)
	}
	return field
}

// Copies the minimap into the bottom right corner of img
func (g *Generator) Overlay(img *gocv.Mat, field gocv.Mat) error {
	x := img.Cols() - field.Cols() - Inset
	y := img.Rows() - field.Rows() - Inset
	if x < 0 || y < 0 {
		return fmt.Errorf("Minimap %dx%d, frame %dx%d: %w",
			field.Cols(), field.Rows(), img.Cols(), img.Rows(), ERR_FIELD_TOO_LARGE)
	}
	roi := img.Region(image.Rect(x, y, x+field.Cols(), y+field.Rows()))
	defer roi.Close()
	return field.CopyTo(&roi)
}
