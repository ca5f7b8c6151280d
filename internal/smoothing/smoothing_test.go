package smoothing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultParams() Params {
	return Params{MedianKernel: 5, SavgolWindow: 9, SavgolOrder: 2}
}

func TestSmoothShortSeriesPassesThrough(t *testing.T) {
	x := []float64{1, 2, 3}
	out := Smooth(x, defaultParams())
	assert.Equal(t, x, out)
}

func TestSmoothPreservesLength(t *testing.T) {
	x := make([]float64, 50)
	for i := range x {
		x[i] = float64(i)
	}
	out := Smooth(x, defaultParams())
	require.Len(t, out, len(x))
}

func TestSmoothLinearRampIsUnchanged(t *testing.T) {
	// Away from the edges a perfect line is a fixed point of both stages:
	// the median of a monotone window is its center sample, and a
	// degree-2 fit to a line reproduces the line exactly. The edge
	// reflection duplicates the boundary sample, so the median stage moves
	// samples 0 and n-1, and every Savitzky-Golay output whose window
	// reaches them (indices 0..4 and n-5..n-1) moves with it.
	x := make([]float64, 30)
	for i := range x {
		x[i] = 2.0*float64(i) + 5.0
	}
	out := Smooth(x, defaultParams())
	for i := 5; i < len(x)-5; i++ {
		assert.InDelta(t, x[i], out[i], 1e-9, "index %d", i)
	}
}

func TestSmoothRemovesSingleSampleSpike(t *testing.T) {
	x := make([]float64, 21)
	for i := range x {
		x[i] = 1.0
	}
	x[10] = 50.0 // single-sample outlier
	out := Smooth(x, defaultParams())
	assert.Less(t, out[10], 5.0, "median stage should remove an isolated spike")
}

func TestMedianFilterOddKernel(t *testing.T) {
	x := []float64{5, 1, 1, 1, 1, 1, 9, 1, 1, 1, 1}
	out := medianFilter(x, 5)
	require.Len(t, out, len(x))
	assert.Equal(t, 1.0, out[5])
}

func TestReflectIndexMirrorsAtBoundaries(t *testing.T) {
	cases := []struct {
		idx, n, want int
	}{
		{0, 4, 0},
		{-1, 4, 0},
		{-2, 4, 1},
		{4, 4, 3},
		{5, 4, 2},
	}
	for _, c := range cases {
		got := reflectIndex(c.idx, c.n)
		assert.Equal(t, c.want, got, "reflectIndex(%d, %d)", c.idx, c.n)
	}
}

func TestSavgolQuadraticFitRecoversParabolaInterior(t *testing.T) {
	n := 40
	x := make([]float64, n)
	for i := range x {
		u := float64(i)
		x[i] = 0.01*u*u - 0.5*u + 3.0
	}
	out := savgolFilter(x, 9, 2)
	for i := 6; i < n-6; i++ {
		assert.InDelta(t, x[i], out[i], 1e-6, "index %d", i)
	}
}

func TestSolveLinearDiagonal(t *testing.T) {
	a := [][]float64{{2, 0}, {0, 4}}
	b := []float64{4, 8}
	got := solveLinear(a, b)
	require.Len(t, got, 2)
	assert.InDelta(t, 2.0, got[0], 1e-9)
	assert.InDelta(t, 2.0, got[1], 1e-9)
}
