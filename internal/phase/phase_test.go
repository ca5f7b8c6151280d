package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adhesion-metrics/internal/config"
)

func TestFirstCallIsUnknown(t *testing.T) {
	a := NewAnnotator(config.Default())
	assert.Equal(t, Unknown, a.Classify(0.0))
}

func TestSandwichThenLift(t *testing.T) {
	a := NewAnnotator(config.Default())
	a.Classify(0.0) // Unknown, seeds state

	// Small touch under sandwich_max_distance_mm (default 1.0mm).
	got := a.Classify(-0.3)
	assert.Equal(t, Sandwich, got)

	// Continues decreasing well past the sandwich threshold: becomes Lift.
	got = a.Classify(-6.0)
	assert.Equal(t, Lift, got)
}

func TestRetractOnIncreasingPosition(t *testing.T) {
	a := NewAnnotator(config.Default())
	a.Classify(-6.0)
	got := a.Classify(-3.0)
	assert.Equal(t, Retract, got)
}

func TestPauseAfterStationaryRun(t *testing.T) {
	cfg := config.Default()
	a := NewAnnotator(cfg)
	a.Classify(0.0)
	a.Classify(0.0001)
	got := a.Classify(0.0001)
	got = a.Classify(0.0001)
	assert.Equal(t, Pause, got)
}
