// Package smoothing implements the two-stage noise-reduction filter
// (component A): a median filter followed by a Savitzky-Golay polynomial
// filter. The chain is fixed by an offline grid search over
// SSR + lambda*Roughness (lambda=1.0); no single-stage substitute is
// acceptable — see spec.md §4.A and §9.
package smoothing

import "sort"

// Params holds the two-stage filter's tunables. Both windows must be odd.
type Params struct {
	MedianKernel int
	SavgolWindow int
	SavgolOrder  int
}

// Smooth applies the median filter then the Savitzky-Golay filter to x,
// returning a new slice of the same length. If x is shorter than the
// larger of the two windows, x is returned unchanged (spec.md §4.A
// failure mode) — the caller owns x and this function never mutates it.
func Smooth(x []float64, p Params) []float64 {
	minLen := p.MedianKernel
	if p.SavgolWindow > minLen {
		minLen = p.SavgolWindow
	}
	if len(x) < minLen {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}

	stage1 := medianFilter(x, p.MedianKernel)
	stage2 := savgolFilter(stage1, p.SavgolWindow, p.SavgolOrder)
	return stage2
}

// medianFilter replaces sample i with the median of the symmetric window
// [i-k/2, i+k/2], reflecting at the edges (the boundary sample is
// duplicated outward rather than the series being wrapped or truncated).
func medianFilter(x []float64, kernel int) []float64 {
	half := kernel / 2
	n := len(x)
	out := make([]float64, n)
	window := make([]float64, kernel)

	for i := 0; i < n; i++ {
		for j := -half; j <= half; j++ {
			window[j+half] = x[reflectIndex(i+j, n)]
		}
		out[i] = median(window)
	}
	return out
}

// reflectIndex maps an out-of-range index back into [0, n) by mirroring
// at the boundaries, duplicating the boundary sample (symmetric
// reflection), e.g. for n=4: ..., 1, 0, 0, 1, 2, 3, 3, 2, 1, 0, 0, ...
func reflectIndex(idx, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	idx %= period
	if idx < 0 {
		idx += period
	}
	if idx < n {
		return idx
	}
	return period - 1 - idx
}

// median returns the median of a slice, sorting a private copy so the
// caller's window buffer is left untouched in its original order.
func median(window []float64) float64 {
	tmp := make([]float64, len(window))
	copy(tmp, window)
	sort.Float64s(tmp)
	mid := len(tmp) / 2
	if len(tmp)%2 == 1 {
		return tmp[mid]
	}
	return (tmp[mid-1] + tmp[mid]) / 2
}
