// Package feature computes the colour-histogram appearance descriptor
// used to re-identify players after they drop out of tracking.
package feature

import (
	"image"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

const (
	CropWidth  = 64
	CropHeight = 128

	HueBins        = 16
	SaturationBins = 16
	ValueBins      = 8

	Length = HueBins + SaturationBins + ValueBins
)

// Concatenated, min-max normalised H, S and V histograms.
// nil means no feature
type Descriptor []float64

type channel struct {
	index    int
	bins     int
	low, top float64
}

// OpenCV stores 8-bit hue as [0, 180)
var channels = []channel{
	{0, HueBins, 0, 180},
	{1, SaturationBins, 0, 256},
	{2, ValueBins, 0, 256},
}

// Extracts the descriptor of the box region of a BGR image. The box
// is clipped to the image first, degenerate crops yield nil
func Extract(img gocv.Mat, box image.Rectangle) Descriptor {
	if img.Empty() {
		return nil
	}
	box = box.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if box.Empty() {
		return nil
	}

	region := img.Region(box)
	defer region.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(region, &resized, image.Pt(CropWidth, CropHeight), 0, 0, gocv.InterpolationLinear)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(resized, &hsv, gocv.ColorBGRToHSV)

	descriptor := make(Descriptor, 0, Length)
	for _, ch := range channels {
		descriptor = append(descriptor, histogram(hsv, ch)...)
	}
	return descriptor
}

func histogram(hsv gocv.Mat, ch channel) []float64 {
	hist := gocv.NewMat()
	defer hist.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.CalcHist(
		[]gocv.Mat{hsv}, []int{ch.index}, mask, &hist,
		[]int{ch.bins}, []float64{ch.low, ch.top}, false)

	values := make([]float64, ch.bins)
	for i := range ch.bins {
		values[i] = float64(hist.GetFloatAt(i, 0))
	}
	return MinMax(values)
}

// Rescales values in place to [0, 1]. A flat
// histogram becomes all zeros
func MinMax(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	for i, v := range values {
		if span == 0 {
			values[i] = 0
		} else {
			values[i] = (v - lo) / span
		}
	}
	return values
}

// Histogram correlation, same measure as OpenCV's HISTCMP_CORREL.
// Returns 0 for missing or mismatched descriptors
func Correlation(a, b Descriptor) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	c := stat.Correlation(a, b, nil)
	if math.IsNaN(c) {
		// zero variance on either side, OpenCV reports a perfect match
		return 1
	}
	return c
}

// Highest correlation between d and any descriptor of the bank
func BestMatch(d Descriptor, bank []Descriptor) float64 {
	best := 0.0
	if d == nil {
		return best
	}
	for _, stored := range bank {
		if stored == nil {
			continue
		}
		best = max(best, Correlation(d, stored))
	}
	return best
}
