// Package report turns a final metrics snapshot into summary statistics.
package report

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0..100) of samples using linear
// interpolation between closest ranks. The second result is false when samples
// is empty or p is NaN, meaning the percentile is undefined. samples is not
// modified.
func Percentile(samples []float64, p float64) (float64, bool) {
	n := len(samples)
	if n == 0 || math.IsNaN(p) {
		return 0, false
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p), true
}

// percentileSorted expects a non-empty ascending slice.
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if p < 0 {
		p = 0
	} else if p > 100 {
		p = 100
	}
	k := float64(n-1) * p / 100
	f := int(math.Floor(k))
	c := f + 1
	if c > n-1 {
		c = n - 1
	}
	if f == c {
		return sorted[f]
	}
	return sorted[f] + (sorted[c]-sorted[f])*(k-float64(f))
}
