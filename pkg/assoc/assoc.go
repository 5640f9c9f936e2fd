package assoc

import (
	"github.com/Robogera/pitchtrack/pkg/gmat"
	hung "github.com/arthurkushman/go-hungarian"
)

type Assoc struct {
	Row, Col int
	Cost     float64
}

// Minimum-cost one-to-one assignment between rows and columns of the
// cost matrix. Pairs costing more than threshold are dropped, so rows and
// columns may stay unassigned
func Associate(cost *gmat.Mat[float64], threshold float64) []Assoc {
	var assocs []Assoc

	rows, cols := cost.Dims()
	if rows < 1 || cols < 1 {
		return assocs
	}

	// dummy cells must never beat a real pair below threshold
	pad := threshold + 1
	for r := range rows {
		for c := range cols {
			pad = max(pad, cost.At(r, c)+1)
		}
	}

	for r, cols_map := range hung.SolveMin(cost.To2d(pad)) {
		for c := range cols_map {
			if r >= rows || c >= cols {
				continue
			}
			if v := cost.At(r, c); v <= threshold {
				assocs = append(assocs, Assoc{Row: r, Col: c, Cost: v})
			}
		}
	}
	return assocs
}
