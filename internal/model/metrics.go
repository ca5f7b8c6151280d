package model

import "math"

// LayerMetrics is the final output record for one layer. Fields that
// could not be computed are NaN; DataQualityOK summarizes whether peak,
// pre-init, and prop-end were all identified (spec.md §4.B).
type LayerMetrics struct {
	LayerNumber int64

	PeakForceN      float64
	PeakPositionMM  float64
	PeakTimeS       float64

	BaselineForceN         float64
	PeakRetractionForceN   float64

	PreInitTimeS     float64
	PreInitPositionMM float64

	PropEndTimeS     float64
	PropEndPositionMM float64

	PreInitDurationS   float64
	PropagationDurationS float64
	TotalPeelDurationS float64

	DistanceToPeakMM      float64
	PropagationDistanceMM float64
	TotalPeelDistanceMM   float64

	WorkOfAdhesionMJ float64

	EffectiveStiffnessNPerMM float64
	StiffnessR2              float64

	SignalToNoiseRatio float64

	// Optional opaque metadata, passed through untouched.
	StepSpeedUmPerS *float64
	FluidTag        string
	GapTag          string

	DataQualityOK bool
}

// NaNMetrics returns a LayerMetrics with every numeric field set to NaN
// and DataQualityOK false — the Calculator's starting point before it
// fills in whatever it manages to compute.
func NaNMetrics(layerNumber int64) LayerMetrics {
	nan := math.NaN()
	return LayerMetrics{
		LayerNumber:              layerNumber,
		PeakForceN:               nan,
		PeakPositionMM:           nan,
		PeakTimeS:                nan,
		BaselineForceN:           nan,
		PeakRetractionForceN:     nan,
		PreInitTimeS:             nan,
		PreInitPositionMM:        nan,
		PropEndTimeS:             nan,
		PropEndPositionMM:        nan,
		PreInitDurationS:         nan,
		PropagationDurationS:     nan,
		TotalPeelDurationS:       nan,
		DistanceToPeakMM:         nan,
		PropagationDistanceMM:    nan,
		TotalPeelDistanceMM:      nan,
		WorkOfAdhesionMJ:         nan,
		EffectiveStiffnessNPerMM: nan,
		StiffnessR2:              nan,
		SignalToNoiseRatio:       nan,
		DataQualityOK:            false,
	}
}
