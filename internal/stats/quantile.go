package stats

import "math"

// quantile returns the q-th quantile (0..1) of ascending-sorted values.
// Percentile p sits at rank index p/100*(N-1), linearly interpolated between
// the bracketing ranks. This matches the numpy/pandas default and is pinned
// by tests; "percentile" has several conventions and mixing them shifts
// quartiles on small datasets.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// round1 rounds to one decimal place, half away from zero.
func round1(x float64) float64 {
	if x < 0 {
		return -math.Floor(-x*10+0.5) / 10
	}
	return math.Floor(x*10+0.5) / 10
}
