// Package annotate draws per-class detection markers onto a frame.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Robogera/pitchtrack/pkg/detection"
	"github.com/muesli/gamut"
	"gocv.io/x/gocv"
)

// Sequential 1-based number of a player within one frame. Not a
// persistent identity
type Ordinal int

func (o Ordinal) Label() string { return fmt.Sprintf("P%d", int(o)) }

type PlayerMarker struct {
	Ordinal Ordinal
	Box     image.Rectangle
	Center  image.Point
}

const (
	glowOuterRadius = 20
	glowInnerRadius = 11
	glowThickness   = 2
	glowOverlay     = 0.3
	ringRadius      = 12
	highlightRadius = 8
	dotRadius       = 4

	maxArm            = 20
	bracketThickness  = 2
	selectedThickness = 3

	labelFont      = gocv.FontHersheySimplex
	labelScale     = 0.5
	labelThickness = 1
	labelPadding   = 2
	labelLift      = 5
	labelMinY      = 15
)

var (
	GlowColor      = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	RingColor      = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	HighlightColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	DotColor       = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	RefereeColor   = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	// players are orange, so (255,128,0) is taken as RGB and not BGR
	PlayerColor     = color.RGBA{R: 255, G: 128, B: 0, A: 255}
	SelectedColor   = complementary(PlayerColor)
	LabelColor      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	LabelBackground = color.RGBA{A: 255}
)

func complementary(c color.RGBA) color.RGBA {
	r, g, b, _ := gamut.Complementary(c).RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
}

// Reports whether the detection at index i gets the selection style
type Highlight func(i int) bool

// Draws every detection onto img and returns the player markers in
// drawing order. highlight may be nil
func Frame(img *gocv.Mat, dets []detection.Detection, highlight Highlight) []PlayerMarker {
	var markers []PlayerMarker
	for i, d := range dets {
		switch v := d.(type) {
		case detection.Ball:
			Ball(img, v.Center())
		case detection.Referee:
			Brackets(img, v.Box(), RefereeColor, bracketThickness)
		case detection.Player:
			ordinal := Ordinal(len(markers) + 1)
			if highlight != nil && highlight(i) {
				Brackets(img, v.Box(), SelectedColor, selectedThickness)
			} else {
				Brackets(img, v.Box(), PlayerColor, bracketThickness)
			}
			Label(img, v.Box(), ordinal.Label())
			markers = append(markers, PlayerMarker{Ordinal: ordinal, Box: v.Box(), Center: v.Center()})
		}
	}
	return markers
}

// Fading glow rings blended into the frame, then the solid marker
func Ball(img *gocv.Mat, center image.Point) {
	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	area := image.Rectangle{
		Min: center.Sub(image.Pt(glowOuterRadius+glowThickness, glowOuterRadius+glowThickness)),
		Max: center.Add(image.Pt(glowOuterRadius+glowThickness+1, glowOuterRadius+glowThickness+1)),
	}.Intersect(bounds)

	if !area.Empty() {
		roi := img.Region(area)
		local := center.Sub(area.Min)
		for r := glowOuterRadius; r >= glowInnerRadius; r-- {
			alpha := float64(glowOuterRadius-r) / 10
			c := color.RGBA{
				R: uint8(float64(GlowColor.R) * alpha),
				G: uint8(float64(GlowColor.G) * alpha),
				B: uint8(float64(GlowColor.B) * alpha),
				A: 255,
			}
			overlay := roi.Clone()
			gocv.Circle(&overlay, local, r, c, glowThickness)
			gocv.AddWeighted(overlay, glowOverlay, roi, 1-glowOverlay, 0, &roi)
			overlay.Close()
		}
		roi.Close()
	}

	gocv.Circle(img, center, ringRadius, RingColor, 2)
	gocv.Circle(img, center, highlightRadius, HighlightColor, -1)
	gocv.Circle(img, center, dotRadius, DotColor, -1)
}

// Arm length of the corner brackets for a box
func Arm(box image.Rectangle) int {
	return min(maxArm, box.Dx()/3, box.Dy()/3)
}

// Four corner brackets instead of a full rectangle
func Brackets(img *gocv.Mat, box image.Rectangle, c color.RGBA, thickness int) {
	arm := Arm(box)
	x1, y1, x2, y2 := box.Min.X, box.Min.Y, box.Max.X, box.Max.Y
	corners := []struct {
		at     image.Point
		dx, dy int
	}{
		{image.Pt(x1, y1), arm, arm},
		{image.Pt(x2, y1), -arm, arm},
		{image.Pt(x1, y2), arm, -arm},
		{image.Pt(x2, y2), -arm, -arm},
	}
	for _, corner := range corners {
		gocv.Line(img, corner.at, corner.at.Add(image.Pt(corner.dx, 0)), c, thickness)
		gocv.Line(img, corner.at, corner.at.Add(image.Pt(0, corner.dy)), c, thickness)
	}
}

// Text origin of a label centred above box, pushed inside the
// box when it would leave the image
func LabelOrigin(box image.Rectangle, size image.Point) image.Point {
	x := box.Min.X + (box.Dx()-size.X)/2
	y := box.Min.Y - labelLift
	if y < labelMinY {
		y = box.Min.Y + labelMinY
	}
	return image.Pt(x, y)
}

func Label(img *gocv.Mat, box image.Rectangle, text string) {
	size := gocv.GetTextSize(text, labelFont, labelScale, labelThickness)
	at := LabelOrigin(box, size)
	background := image.Rect(
		at.X-labelPadding, at.Y-size.Y-labelPadding,
		at.X+size.X+labelPadding, at.Y+labelPadding,
	)
	gocv.Rectangle(img, background, LabelBackground, -1)
	gocv.PutText(img, text, at, labelFont, labelScale, LabelColor, labelThickness)
}
