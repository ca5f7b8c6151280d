// Package trend implements the Session Trend Tracker: a downstream,
// read-only observer of LayerMetrics that never influences any
// spec-defined metric. Two pieces, each repurposed from a teacher
// module rather than invented fresh:
//
//   - A multi-window EMA tracker of peak_force_N and baseline_force_N
//     across the layers of one session, adapted from the teacher's
//     engine.CandleDelta multi-timeframe bucketing (five independent
//     smoothing constants instead of five candle timeframes).
//   - A composite layer quality score in [0, 100], adapted from the
//     teacher's pressure.Scorer adaptive-normalization fusion (rolling
//     sigma-normalized signals, weighted sum, EMA smoothing, clamped
//     output) — here fusing peak-force deviation, SNR, and stiffness R².
package trend

import "math"

// window is one EMA timeframe, identified by how many layers of memory
// its smoothing constant roughly represents (alpha = 2/(n+1)).
type window struct {
	layers int
	alpha  float64
	value  float64
	seeded bool
}

func newWindow(layers int) *window {
	return &window{layers: layers, alpha: 2.0 / (float64(layers) + 1.0)}
}

func (w *window) update(v float64) float64 {
	if !w.seeded {
		w.value = v
		w.seeded = true
		return w.value
	}
	w.value = w.alpha*v + (1-w.alpha)*w.value
	return w.value
}

// Sample is one layer's EMA readout across every tracked window, keyed
// by window size in layers.
type Sample struct {
	PeakForceEMA     map[int]float64
	BaselineForceEMA map[int]float64
}

// Tracker maintains independent EMA windows over peak_force_N and
// baseline_force_N across the layers of one print job.
type Tracker struct {
	peakWindows     []*window
	baselineWindows []*window
}

// defaultWindowLayers mirrors the teacher's five-timeframe spread,
// reinterpreted as layer counts instead of candle durations.
var defaultWindowLayers = []int{3, 5, 10, 20, 50}

// NewTracker constructs a Tracker with the default window spread.
func NewTracker() *Tracker {
	t := &Tracker{}
	for _, n := range defaultWindowLayers {
		t.peakWindows = append(t.peakWindows, newWindow(n))
		t.baselineWindows = append(t.baselineWindows, newWindow(n))
	}
	return t
}

// Update feeds one layer's peak and baseline force into every window
// and returns the resulting per-window EMA readout.
func (t *Tracker) Update(peakForceN, baselineForceN float64) Sample {
	s := Sample{
		PeakForceEMA:     make(map[int]float64, len(t.peakWindows)),
		BaselineForceEMA: make(map[int]float64, len(t.baselineWindows)),
	}
	for _, w := range t.peakWindows {
		s.PeakForceEMA[w.layers] = w.update(peakForceN)
	}
	for _, w := range t.baselineWindows {
		s.BaselineForceEMA[w.layers] = w.update(baselineForceN)
	}
	return s
}

// Scorer fuses peak-force deviation, SNR, and stiffness R² into one
// composite layer quality score in [0, 100]. The peak-force term is
// normalized by a rolling estimate of its own spread before fusion, the
// same adaptive-normalization idea as the teacher's pressure.Scorer;
// SNR and stiffness R² are instead scaled against fixed ranges (30 and
// 1 respectively) and clamped to [0, 1].
type Scorer struct {
	peakMean, peakVar float64
	seeded            bool
	alpha             float64

	emaScore float64
	scoreSeeded bool
}

// NewScorer constructs a Scorer with a fixed EMA smoothing constant for
// both the rolling peak-force normalizer and the output score itself.
func NewScorer(alpha float64) *Scorer {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2
	}
	return &Scorer{alpha: alpha}
}

// Score computes one layer's quality score from its peak force (relative
// to the session rolling mean this Scorer maintains), its SNR, and its
// stiffness R². Missing/NaN inputs contribute zero to their term instead
// of poisoning the whole composite with NaN.
func (s *Scorer) Score(peakForceN, snr, stiffnessR2 float64) float64 {
	s.updatePeakStats(peakForceN)

	peakTerm := s.normalizedPeakTerm(peakForceN)
	snrTerm := boundedTerm(snr, 30.0) // SNR of 30 treated as "excellent"
	r2Term := boundedTerm(stiffnessR2, 1.0)

	raw := 100.0 * (0.4*peakTerm + 0.3*snrTerm + 0.3*r2Term)
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}

	if !s.scoreSeeded {
		s.emaScore = raw
		s.scoreSeeded = true
	} else {
		s.emaScore = s.alpha*raw + (1-s.alpha)*s.emaScore
	}
	return s.emaScore
}

func (s *Scorer) updatePeakStats(v float64) {
	if math.IsNaN(v) {
		return
	}
	if !s.seeded {
		s.peakMean = v
		s.peakVar = 0
		s.seeded = true
		return
	}
	delta := v - s.peakMean
	s.peakMean += s.alpha * delta
	s.peakVar = (1-s.alpha)*(s.peakVar+s.alpha*delta*delta)
}

// normalizedPeakTerm scores closeness to the rolling mean peak force:
// 1.0 at zero deviation, decaying as |deviation| grows relative to the
// rolling standard deviation.
func (s *Scorer) normalizedPeakTerm(v float64) float64 {
	if math.IsNaN(v) || !s.seeded {
		return 0
	}
	sigma := math.Sqrt(s.peakVar)
	if sigma < 1e-9 {
		return 1
	}
	z := math.Abs(v-s.peakMean) / sigma
	return 1.0 / (1.0 + z)
}

func boundedTerm(v, scale float64) float64 {
	if math.IsNaN(v) || scale <= 0 {
		return 0
	}
	t := v / scale
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
