// pkg/cleaner/quantile.go
package cleaner

import (
	"math"
	"slices"
)

// quartiles returns Q1 and Q3 of values with linear interpolation between
// order statistics (rank = p*(n-1)), skipping NaN. ok is false when no
// non-NaN value is present.
func quartiles(values []float64) (q1, q3 float64, ok bool) {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return 0, 0, false
	}

	slices.Sort(sorted)
	return percentileSorted(sorted, 0.25), percentileSorted(sorted, 0.75), true
}

// percentileSorted expects p in [0,1] and a sorted, non-empty slice
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	rank := p * float64(n-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}
