// Package phase implements component F: the stateless-per-call,
// state-across-calls Lift/Retract/Pause/Sandwich classifier used
// optionally during acquisition. It is informational only — it is
// never consulted by the Segmenter (internal/segmenter) to find layer
// boundaries — and its output is not stored: model.Sample has no phase
// field, and neither the collector nor csvio records one. Grounded on
// the teacher's behavior-classification pattern for market regimes.
package phase

import "adhesion-metrics/internal/config"

// Phase is one of the classifier's possible outputs.
type Phase string

const (
	Unknown  Phase = "Unknown"
	Lift     Phase = "Lift"
	Retract  Phase = "Retract"
	Pause    Phase = "Pause"
	Sandwich Phase = "Sandwich"
)

// Annotator holds the small amount of state carried across calls:
// the previous position, a run count of stationary samples, and the
// position at the start of the current directional motion.
type Annotator struct {
	cfg config.PipelineConfig

	hasPrevious       bool
	previousPositionMM float64
	stationaryCount   int
	motionStartMM     float64
	lastDirection     int // -1 lifting, +1 retracting, 0 none yet
}

// NewAnnotator constructs an Annotator bound to one PipelineConfig.
func NewAnnotator(cfg config.PipelineConfig) *Annotator {
	return &Annotator{cfg: cfg}
}

// Classify applies the rules of spec.md §4.F in order and advances the
// annotator's retained state.
func (a *Annotator) Classify(currentPositionMM float64) Phase {
	if !a.hasPrevious {
		a.hasPrevious = true
		a.previousPositionMM = currentPositionMM
		a.motionStartMM = currentPositionMM
		return Unknown
	}

	delta := currentPositionMM - a.previousPositionMM
	a.previousPositionMM = currentPositionMM

	if abs(delta) < a.cfg.StationaryPositionThresholdMM {
		a.stationaryCount++
		if a.stationaryCount >= a.cfg.StationaryCountThreshold {
			return Pause
		}
	} else {
		a.stationaryCount = 0
	}

	switch {
	case delta < 0:
		if a.lastDirection != -1 {
			a.motionStartMM = currentPositionMM
			a.lastDirection = -1
		}
		totalTravel := abs(currentPositionMM - a.motionStartMM)
		if totalTravel < a.cfg.SandwichMaxDistanceMM {
			return Sandwich
		}
		return Lift
	case delta > 0:
		if a.lastDirection != 1 {
			a.motionStartMM = currentPositionMM
			a.lastDirection = 1
		}
		return Retract
	default:
		return Pause
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
