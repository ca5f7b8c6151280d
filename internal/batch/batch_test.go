package batch

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhesion-metrics/internal/config"
	"adhesion-metrics/internal/model"
)

func buildLiftRetract(liftMM float64) *model.SampleRecord {
	var samples []model.Sample
	t := 0.0
	dt := 0.02
	pos := 0.0
	add := func(p, f float64) {
		samples = append(samples, model.Sample{TimeS: t, PositionMM: p, ForceN: f})
		t += dt
	}
	for i := 0; i < 20; i++ {
		add(pos, 0.02)
	}
	steps := 150
	for i := 1; i <= steps; i++ {
		pos = -liftMM * float64(i) / float64(steps)
		add(pos, 0.1*float64(i)/float64(steps))
	}
	for i := 0; i < 40; i++ {
		add(pos, 0.02)
	}
	for i := 1; i <= steps; i++ {
		add(pos+liftMM*float64(i)/float64(steps), 0.0)
	}
	for i := 0; i < 20; i++ {
		add(0, 0)
	}
	return &model.SampleRecord{Samples: samples, NominalHz: 50}
}

func TestRunOnEmptyRecordReportsNoLayers(t *testing.T) {
	record := &model.SampleRecord{}
	res := Run(record, config.Default(), nil, logrus.New(), nil)
	assert.True(t, res.NoLayersFound)
	assert.Empty(t, res.Metrics)
}

func TestRunProducesOneLayerWithMetadataJoin(t *testing.T) {
	record := buildLiftRetract(6.0)
	speed := 25.0
	metadata := map[int64]LayerMetadata{
		1: {StepSpeedUmPerS: &speed, FluidTag: "resin-A", GapTag: "gap-0.1mm"},
	}
	res := Run(record, config.Default(), metadata, logrus.New(), nil)
	require.Len(t, res.Metrics, 1)
	m := res.Metrics[0]
	assert.Equal(t, "resin-A", m.FluidTag)
	require.NotNil(t, m.StepSpeedUmPerS)
	assert.Equal(t, 25.0, *m.StepSpeedUmPerS)
}
