// Package batch implements component D: thin orchestration that drives
// the Segmenter over a full SampleRecord, invokes the Calculator for
// each emitted layer, and assembles a metrics table. It owns no
// algorithms of its own — per spec.md §4.D everything here is wiring.
package batch

import (
	"github.com/sirupsen/logrus"

	"adhesion-metrics/internal/calculator"
	"adhesion-metrics/internal/config"
	"adhesion-metrics/internal/diagnostics"
	"adhesion-metrics/internal/model"
	"adhesion-metrics/internal/segmenter"
	"adhesion-metrics/internal/trend"
)

// LayerMetadata is the optional external join keyed by layer number:
// step speed and condition tags from a companion instruction record.
type LayerMetadata struct {
	StepSpeedUmPerS *float64
	FluidTag        string
	GapTag          string
}

// Result is the Batch Processor's output: the metrics table plus the
// diagnostics spec.md §7 requires be surfaced (no layers found,
// unpaired trailing motion).
type Result struct {
	Metrics            []model.LayerMetrics
	NoLayersFound      bool
	UnpairedTailMotion bool
}

// Run segments record, computes metrics for every layer, and optionally
// joins per-layer metadata by LayerNumber. metadata and counters may be
// nil; when counters is non-nil, unpaired-tail-motion diagnostics are
// tallied onto it (spec.md §7) in addition to being logged.
func Run(record *model.SampleRecord, cfg config.PipelineConfig, metadata map[int64]LayerMetadata, log *logrus.Logger, counters *diagnostics.Counters) Result {
	if log == nil {
		log = logrus.StandardLogger()
	}

	segResult := segmenter.Segment(record, cfg)
	if segResult.UnpairedTailMotion {
		log.Warn("batch: unpaired trailing motion in segmentation; preceding pairs emitted normally")
		if counters != nil {
			counters.UnpairedTailMotions.Add(1)
		}
	}
	if len(segResult.Boundaries) == 0 {
		log.Warn("batch: no layers found in record")
		return Result{NoLayersFound: true, UnpairedTailMotion: segResult.UnpairedTailMotion}
	}

	tracker := trend.NewTracker()
	scorer := trend.NewScorer(0.2)

	metrics := make([]model.LayerMetrics, 0, len(segResult.Boundaries))
	for _, bounds := range segResult.Boundaries {
		m := calculator.Compute(record, bounds, cfg)
		if meta, ok := metadata[bounds.LayerNumber]; ok {
			m.StepSpeedUmPerS = meta.StepSpeedUmPerS
			m.FluidTag = meta.FluidTag
			m.GapTag = meta.GapTag
		}
		if !m.DataQualityOK {
			log.WithField("layer", bounds.LayerNumber).Debug("batch: layer flagged data_quality_ok=false")
		}

		// Session trend tracker (SPEC_FULL.md §4.I): pure downstream
		// observer, fed in layer-finish order, never feeds back into m.
		trendSample := tracker.Update(m.PeakForceN, m.BaselineForceN)
		score := scorer.Score(m.PeakForceN, m.SignalToNoiseRatio, m.StiffnessR2)
		log.WithFields(logrus.Fields{
			"layer":             bounds.LayerNumber,
			"quality_score":     score,
			"peak_force_ema_5":  trendSample.PeakForceEMA[5],
		}).Debug("batch: layer trend")

		metrics = append(metrics, m)
	}

	return Result{Metrics: metrics, UnpairedTailMotion: segResult.UnpairedTailMotion}
}
