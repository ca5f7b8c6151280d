// Package calculator implements component B: per-layer event detection
// and metric derivation. It operates on the lifting half of a
// LayerBoundaries (plus the full interval for the retraction minimum),
// and never fails on noisy or ambiguous data — it degrades individual
// fields to NaN and flags DataQualityOK instead.
package calculator

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"adhesion-metrics/internal/config"
	"adhesion-metrics/internal/model"
	"adhesion-metrics/internal/smoothing"
)

// Compute runs the full single-layer pipeline described in spec.md §4.B.
// It panics on structural invariant violations (non-monotone time, empty
// interval) since those are programmer bugs in the caller, not data
// quality issues.
func Compute(record *model.SampleRecord, bounds model.LayerBoundaries, cfg config.PipelineConfig) model.LayerMetrics {
	if err := bounds.Validate(); err != nil {
		panic(fmt.Sprintf("calculator: %v", err))
	}
	for i := bounds.Full.Start + 1; i < bounds.Full.End && i < len(record.Samples); i++ {
		if record.Samples[i].TimeS < record.Samples[i-1].TimeS {
			panic(fmt.Sprintf("calculator: time is not monotone nondecreasing at index %d", i))
		}
	}
	lift := bounds.Lifting
	n := lift.Len()
	if n == 0 {
		panic("calculator: empty lifting interval")
	}

	result := model.NaNMetrics(bounds.LayerNumber)

	t := record.Times(lift.Start, lift.End)
	x := record.Positions(lift.Start, lift.End)
	f := record.Forces(lift.Start, lift.End)
	t0 := t[0]
	for i := range t {
		t[i] -= t0
	}

	fs := smoothing.Smooth(f, smoothing.Params{
		MedianKernel: cfg.MedianKernel,
		SavgolWindow: cfg.SavgolWindow,
		SavgolOrder:  cfg.SavgolOrder,
	})

	peakIdx := argmax(fs)
	if peakIdx <= 0 || peakIdx >= n-1 {
		result.DataQualityOK = false
		fillRetraction(&result, record, bounds)
		return result
	}
	peakValue := fs[peakIdx]
	result.PeakForceN = peakValue
	result.PeakPositionMM = x[peakIdx]
	result.PeakTimeS = t[peakIdx]

	motionEndIdx := locateMotionEnd(x, peakIdx, cfg)

	baselineSeed := mean(fs[0:clampInt(min(20, peakIdx/4), 0, n)])

	propEndIdx, propEndFound := findPropagationEnd(fs, peakIdx, motionEndIdx, baselineSeed, peakValue, cfg)
	if !propEndFound {
		propEndIdx = motionEndIdx
	}

	preInitIdx, preInitFound := findPreInit(fs, peakIdx, baselineSeed, peakValue, cfg)
	if !preInitFound {
		preInitIdx = max(0, peakIdx-30)
	}

	baseline := mean(fs[clampInt(propEndIdx-2, 0, n):clampInt(propEndIdx+3, 0, n)])
	result.BaselineForceN = baseline

	result.PreInitTimeS = t[preInitIdx]
	result.PreInitPositionMM = x[preInitIdx]
	result.PropEndTimeS = t[propEndIdx]
	result.PropEndPositionMM = x[propEndIdx]

	result.PreInitDurationS = result.PeakTimeS - result.PreInitTimeS
	result.PropagationDurationS = result.PropEndTimeS - result.PeakTimeS
	result.TotalPeelDurationS = result.PreInitDurationS + result.PropagationDurationS

	result.DistanceToPeakMM = math.Abs(result.PeakPositionMM - result.PreInitPositionMM)
	result.PropagationDistanceMM = math.Abs(result.PropEndPositionMM - result.PeakPositionMM)
	result.TotalPeelDistanceMM = result.DistanceToPeakMM + result.PropagationDistanceMM

	result.WorkOfAdhesionMJ = workOfAdhesion(fs, x, preInitIdx, propEndIdx, baseline)

	slope, r2, ok := effectiveStiffness(fs, x, preInitIdx, peakIdx)
	if ok {
		result.EffectiveStiffnessNPerMM = slope
		result.StiffnessR2 = r2
	}

	result.SignalToNoiseRatio = signalToNoiseRatio(fs, preInitIdx, peakValue, baseline)

	fillRetraction(&result, record, bounds)

	result.DataQualityOK = propEndFound && preInitFound
	return result
}

// fillRetraction computes peak_retraction_force_N: the minimum signed
// force over the FULL interval (lift + retraction), per spec.md §4.B.
func fillRetraction(result *model.LayerMetrics, record *model.SampleRecord, bounds model.LayerBoundaries) {
	full := record.Forces(bounds.Full.Start, bounds.Full.End)
	if len(full) == 0 {
		return
	}
	result.PeakRetractionForceN = minFloat(full)
}

func locateMotionEnd(x []float64, peakIdx int, cfg config.PipelineConfig) int {
	n := len(x)
	start := peakIdx + 10
	if start >= n {
		start = n - 1
	}
	pts := cfg.MotionEndStabilityPoints
	limit := min(n, start+cfg.MotionEndMaxSearch)
	for i := start; i+pts <= limit; i++ {
		if stddev(x[i:i+pts]) < cfg.MotionEndStabilityStddevMM {
			return i
		}
	}
	return n - 1
}

// findPropagationEnd searches backward from motionEndIdx to peakIdx for
// the last (highest) index whose value and 5-sample neighborhood average
// both fall at or below threshold.
func findPropagationEnd(fs []float64, peakIdx, motionEndIdx int, baselineSeed, peakValue float64, cfg config.PipelineConfig) (int, bool) {
	threshold := baselineSeed + cfg.PropagationEndThresholdFraction*(peakValue-baselineSeed)
	n := len(fs)
	for i := motionEndIdx; i > peakIdx; i-- {
		if fs[i] > threshold {
			continue
		}
		lo := clampInt(i-2, 0, n)
		hi := clampInt(i+3, 0, n)
		if mean(fs[lo:hi]) <= threshold {
			return i, true
		}
	}
	return 0, false
}

// findPreInit searches forward from the start of the lifting interval
// for the first index whose value and immediate successor both exceed
// threshold_init.
func findPreInit(fs []float64, peakIdx int, baselineSeed, peakValue float64, cfg config.PipelineConfig) (int, bool) {
	threshold := baselineSeed + cfg.PreInitRelativeThreshold*(peakValue-baselineSeed)
	for i := 0; i < peakIdx; i++ {
		if fs[i] > threshold && i+1 < len(fs) && fs[i+1] > threshold {
			return i, true
		}
	}
	return 0, false
}

func workOfAdhesion(fs, x []float64, preInitIdx, propEndIdx int, baseline float64) float64 {
	w := 0.0
	for i := preInitIdx + 1; i <= propEndIdx && i < len(fs); i++ {
		w += (fs[i] - baseline) * math.Abs(x[i]-x[i-1])
	}
	return w
}

// effectiveStiffness fits F_s vs x over [preInitIdx, min(preInitIdx+30, peakIdx)].
func effectiveStiffness(fs, x []float64, preInitIdx, peakIdx int) (slope, r2 float64, ok bool) {
	hi := min(preInitIdx+30, peakIdx)
	if hi-preInitIdx+1 < 5 {
		return math.NaN(), math.NaN(), false
	}
	xs := x[preInitIdx : hi+1]
	ys := fs[preInitIdx : hi+1]
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2val := stat.RSquared(xs, ys, nil, alpha, beta)
	return beta, r2val, true
}

func signalToNoiseRatio(fs []float64, preInitIdx int, peakValue, baseline float64) float64 {
	if preInitIdx < 5 {
		return math.NaN()
	}
	sigma := stddev(fs[0:preInitIdx])
	if sigma == 0 {
		return math.NaN()
	}
	return (peakValue - baseline) / sigma
}

func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m, _ := stats.Mean(xs)
	return m
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	s, _ := stats.StandardDeviation(xs)
	return s
}

func minFloat(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs {
		if v < m {
			m = v
		}
	}
	return m
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

