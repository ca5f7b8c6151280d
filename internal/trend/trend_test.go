package trend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerSeedsOnFirstUpdate(t *testing.T) {
	tr := NewTracker()
	s := tr.Update(5.0, 1.0)
	for _, layers := range defaultWindowLayers {
		assert.Equal(t, 5.0, s.PeakForceEMA[layers])
		assert.Equal(t, 1.0, s.BaselineForceEMA[layers])
	}
}

func TestTrackerConvergesTowardSteadyInput(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 200; i++ {
		tr.Update(10.0, 2.0)
	}
	s := tr.Update(10.0, 2.0)
	for _, layers := range defaultWindowLayers {
		assert.InDelta(t, 10.0, s.PeakForceEMA[layers], 1e-6)
		assert.InDelta(t, 2.0, s.BaselineForceEMA[layers], 1e-6)
	}
}

func TestScorerRewardsStableNearMeanPeaks(t *testing.T) {
	sc := NewScorer(0.3)
	var last float64
	for i := 0; i < 20; i++ {
		last = sc.Score(5.0, 25.0, 0.95)
	}
	assert.Greater(t, last, 70.0)
	assert.LessOrEqual(t, last, 100.0)
}

func TestScorerPenalizesOutlierPeak(t *testing.T) {
	sc := NewScorer(0.3)
	for i := 0; i < 20; i++ {
		sc.Score(5.0, 25.0, 0.95)
	}
	stable := sc.Score(5.0, 25.0, 0.95)
	outlier := sc.Score(50.0, 25.0, 0.95)
	assert.Less(t, outlier, stable)
}

func TestScorerHandlesNaNInputsWithoutPropagatingNaN(t *testing.T) {
	sc := NewScorer(0.3)
	got := sc.Score(math.NaN(), math.NaN(), math.NaN())
	require.False(t, math.IsNaN(got))
	assert.GreaterOrEqual(t, got, 0.0)
}
