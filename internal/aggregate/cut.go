package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// cutAdjust widens the first edge so the minimum lands inside bin one.
const cutAdjust = 0.001

// EqualWidthEdges returns n+1 right-closed bin edges spanning [lo, hi]. The
// lowest edge is pulled down by 0.1% of the range so lo falls into the first
// bin. A degenerate range is widened by 0.1% of |lo| on both sides.
func EqualWidthEdges(lo, hi float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	edges := make([]float64, n+1)
	if lo == hi {
		pad := cutAdjust * math.Abs(lo)
		if pad == 0 {
			pad = cutAdjust
		}
		floats.Span(edges, lo-pad, hi+pad)
		return edges
	}
	floats.Span(edges, lo, hi)
	edges[0] -= (hi - lo) * cutAdjust
	return edges
}

// Locate returns the 1-based bin holding v, or 0 when v lies outside the edges.
func Locate(edges []float64, v float64) int {
	if len(edges) < 2 || v <= edges[0] || v > edges[len(edges)-1] {
		return 0
	}
	return sort.SearchFloat64s(edges[1:], v) + 1
}
