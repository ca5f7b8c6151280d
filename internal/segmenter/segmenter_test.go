package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhesion-metrics/internal/config"
	"adhesion-metrics/internal/model"
)

// buildLiftRetract synthesizes a clean record with a single 6mm lift
// followed by a stationary pause and a 6mm retraction.
func buildLiftRetract(liftMM float64) *model.SampleRecord {
	var samples []model.Sample
	t := 0.0
	dt := 0.02
	pos := 0.0

	add := func(p float64) {
		samples = append(samples, model.Sample{TimeS: t, PositionMM: p, ForceN: 0.05})
		t += dt
	}
	for i := 0; i < 20; i++ {
		add(pos)
	}
	steps := 150
	for i := 1; i <= steps; i++ {
		pos = -liftMM * float64(i) / float64(steps)
		add(pos)
	}
	for i := 0; i < 40; i++ {
		add(pos)
	}
	for i := 1; i <= steps; i++ {
		add(pos + liftMM*float64(i)/float64(steps))
	}
	for i := 0; i < 20; i++ {
		add(0)
	}
	return &model.SampleRecord{Samples: samples, NominalHz: 50}
}

func TestSegmentFindsOneLayerFromLiftRetract(t *testing.T) {
	record := buildLiftRetract(6.0)
	res := Segment(record, config.Default())
	require.Len(t, res.Boundaries, 1)
	b := res.Boundaries[0]
	require.NoError(t, b.Validate())
	assert.False(t, res.UnpairedTailMotion)
}

func TestSegmentEmptyRecordReturnsNoBoundaries(t *testing.T) {
	record := &model.SampleRecord{}
	res := Segment(record, config.Default())
	assert.Empty(t, res.Boundaries)
	assert.False(t, res.UnpairedTailMotion)
}

func TestSegmentIgnoresOutOfToleranceMotion(t *testing.T) {
	// A motion far outside [5.5, 6.5]mm must never be added to the
	// motion list, so it cannot be mistaken for a lift or retract.
	record := buildLiftRetract(1.0)
	res := Segment(record, config.Default())
	assert.Empty(t, res.Boundaries)
}

func TestWithinToleranceBoundaries(t *testing.T) {
	cfg := config.Default()
	assert.True(t, withinTolerance(6.0, cfg))
	assert.True(t, withinTolerance(5.5, cfg))
	assert.True(t, withinTolerance(-6.5, cfg))
	assert.False(t, withinTolerance(5.4, cfg))
	assert.False(t, withinTolerance(6.6, cfg))
}

func TestReflectIndexMirrorsAtBoundaries(t *testing.T) {
	assert.Equal(t, 0, reflectIndex(-1, 4))
	assert.Equal(t, 3, reflectIndex(4, 4))
}

func TestPairMotionsFlagsOddTail(t *testing.T) {
	motions := []model.MotionEvent{
		{StartIdx: 0, EndIdx: 10, SignedDistMM: 6},
		{StartIdx: 20, EndIdx: 30, SignedDistMM: -6},
		{StartIdx: 40, EndIdx: 50, SignedDistMM: 6},
	}
	res := pairMotions(motions)
	require.Len(t, res.Boundaries, 1)
	assert.True(t, res.UnpairedTailMotion)
}
