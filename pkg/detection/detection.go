// Package detection holds the typed form of detector output: the wire
// predictions, the per-class detection variants and the lookup that pairs
// a video frame with the closest detection result.
package detection

import (
	"encoding/json"
	"image"
	"math"
	"strings"
)

// Single box as returned by the inference API. X and Y are box centres
type Prediction struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Color      string  `json:"color,omitempty"`
}

// The hosted API reports dimensions either as numbers or as quoted numbers
type ImageInfo struct {
	Width  json.Number `json:"width"`
	Height json.Number `json:"height"`
}

// Detection source response body
type Response struct {
	Predictions []Prediction `json:"predictions"`
	Image       *ImageInfo   `json:"image,omitempty"`
}

// Detections for one sampled point of the video timeline
type Result struct {
	Offset      float64      `json:"time_offset"`
	Predictions []Prediction `json:"predictions"`
}

type Class string

const (
	ClassBall    Class = "ball"
	ClassPlayer  Class = "player"
	ClassReferee Class = "referee"
)

// Detection is one of Ball, Player or Referee
type Detection interface {
	Class() Class
	Center() image.Point
	Box() image.Rectangle
	Confidence() float64
	detection()
}

type base struct {
	center     image.Point
	box        image.Rectangle
	confidence float64
}

func (b base) Center() image.Point  { return b.center }
func (b base) Box() image.Rectangle { return b.box }
func (b base) Confidence() float64  { return b.confidence }
func (b base) detection()           {}

type Ball struct{ base }
type Player struct{ base }
type Referee struct{ base }

func (Ball) Class() Class    { return ClassBall }
func (Player) Class() Class  { return ClassPlayer }
func (Referee) Class() Class { return ClassReferee }

func NewBall(center image.Point, box image.Rectangle, confidence float64) Ball {
	return Ball{base{center, box, confidence}}
}

func NewPlayer(center image.Point, box image.Rectangle, confidence float64) Player {
	return Player{base{center, box, confidence}}
}

func NewReferee(center image.Point, box image.Rectangle, confidence float64) Referee {
	return Referee{base{center, box, confidence}}
}

// Corner form of the prediction box, clipped to bounds
// when bounds is not empty
func (p Prediction) Rect(bounds image.Rectangle) image.Rectangle {
	r := image.Rect(
		int(p.X-p.Width/2),
		int(p.Y-p.Height/2),
		int(p.X+p.Width/2),
		int(p.Y+p.Height/2),
	)
	if bounds.Empty() {
		return r
	}
	return r.Intersect(bounds)
}

func (p Prediction) Center() image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// Referee detection falls back to the colour attribute some
// detector projects attach. It is a heuristic, not a contract
func isReferee(p Prediction) bool {
	return strings.Contains(strings.ToLower(p.Class), string(ClassReferee)) ||
		strings.EqualFold(p.Color, "orange")
}

// Turns a wire prediction into its typed variant. Anything that is
// neither the ball nor a referee is tracked as a player (goalkeepers
// included)
func Classify(p Prediction, bounds image.Rectangle) Detection {
	b := base{center: p.Center(), box: p.Rect(bounds), confidence: p.Confidence}
	switch {
	case strings.EqualFold(p.Class, string(ClassBall)):
		return Ball{b}
	case isReferee(p):
		return Referee{b}
	default:
		return Player{b}
	}
}

func ClassifyAll(predictions []Prediction, bounds image.Rectangle) []Detection {
	out := make([]Detection, 0, len(predictions))
	for _, p := range predictions {
		out = append(out, Classify(p, bounds))
	}
	return out
}

// Index of the result recorded closest to ts (seconds). The
// first of equally close results wins
func Nearest(results []Result, ts float64) (int, bool) {
	best, best_diff := -1, math.Inf(1)
	for i, r := range results {
		if diff := math.Abs(r.Offset - ts); diff < best_diff {
			best, best_diff = i, diff
		}
	}
	return best, best >= 0
}

type Groups struct {
	Ball     *Ball
	Players  []Player
	Referees []Referee
	// indices into the classified slice, in the same order as Players
	PlayerIndices []int
}

// Splits detections by class. When several balls are
// reported the most confident one is kept
func Partition(dets []Detection) Groups {
	var g Groups
	for i, d := range dets {
		switch v := d.(type) {
		case Ball:
			if g.Ball == nil || v.Confidence() > g.Ball.Confidence() {
				ball := v
				g.Ball = &ball
			}
		case Player:
			g.Players = append(g.Players, v)
			g.PlayerIndices = append(g.PlayerIndices, i)
		case Referee:
			g.Referees = append(g.Referees, v)
		}
	}
	return g
}
