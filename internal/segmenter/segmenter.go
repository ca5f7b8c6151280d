// Package segmenter implements component C: the distance-first motion
// finder described in spec.md §4.C. It finds every stage excursion whose
// magnitude falls within [expected_lift_mm - tol, expected_lift_mm + tol]
// and pairs them sequentially into LayerBoundaries, deliberately ignoring
// the sign (lift vs retract) of each excursion so a small out-of-band
// "sandwich" touch never confuses the pairing — see spec.md §4.C
// rationale for why the earlier direction-based state machine failed.
package segmenter

import (
	"math"

	"github.com/montanaflynn/stats"

	"adhesion-metrics/internal/config"
	"adhesion-metrics/internal/model"
)

const (
	windowedMeanWindow = 20
	initialSkip        = 10
	scanStep           = 10
	scanStart          = 50
	scanMax            = 1000
	advanceStep        = 50
	postMotionSkip     = 10
)

// Result carries the emitted boundaries plus diagnostics the Batch
// Processor surfaces per spec.md §7 (unpaired trailing motion, no
// motions found).
type Result struct {
	Boundaries         []model.LayerBoundaries
	UnpairedTailMotion bool
}

// Segment scans record.Positions for 6mm-class motions and pairs them
// sequentially into layers. Operates only on t[] and x[] (spec.md §4.C).
func Segment(record *model.SampleRecord, cfg config.PipelineConfig) Result {
	n := record.Len()
	if n == 0 {
		return Result{}
	}
	x := record.Positions(0, n)
	smoothX := windowedMean(x, windowedMeanWindow)

	motions := findMotions(smoothX, cfg)
	return pairMotions(motions)
}

func findMotions(x []float64, cfg config.PipelineConfig) []model.MotionEvent {
	n := len(x)
	var motions []model.MotionEvent

	i := initialSkip
	for i < n {
		found := false
		maxJ := i + scanMax
		if maxJ > n-windowedMeanWindow {
			maxJ = n - windowedMeanWindow
		}
		for j := i + scanStart; j <= maxJ; j += scanStep {
			startPos := windowMean(x, i, windowedMeanWindow)
			endPos := windowMean(x, j, windowedMeanWindow)
			dist := endPos - startPos
			if withinTolerance(dist, cfg) {
				refinedEnd := refineMotionEnd(x, j, cfg)
				refinedEndPos := windowMean(x, refinedEnd, windowedMeanWindow)
				refinedDist := refinedEndPos - startPos
				if withinTolerance(refinedDist, cfg) {
					motions = append(motions, model.MotionEvent{
						StartIdx:     i,
						EndIdx:       refinedEnd,
						SignedDistMM: refinedDist,
					})
					i = refinedEnd + postMotionSkip
					found = true
					break
				}
			}
		}
		if !found {
			i += advanceStep
		}
	}
	return motions
}

func withinTolerance(dist float64, cfg config.PipelineConfig) bool {
	mag := math.Abs(dist)
	return mag >= cfg.ExpectedLiftMM-cfg.LiftToleranceMM && mag <= cfg.ExpectedLiftMM+cfg.LiftToleranceMM
}

// refineMotionEnd is §4.C.1: scan forward from j for the first window of
// motion_end_stability_points samples whose stddev is below the
// stability threshold; abort to j unchanged if none appears within
// motion_end_max_search samples.
func refineMotionEnd(x []float64, j int, cfg config.PipelineConfig) int {
	n := len(x)
	pts := cfg.MotionEndStabilityPoints
	limit := j + cfg.MotionEndMaxSearch
	if limit > n-pts {
		limit = n - pts
	}
	for k := j; k <= limit; k++ {
		if stddev(x[k:k+pts]) < cfg.MotionEndStabilityStddevMM {
			return k
		}
	}
	return j
}

// pairMotions pairs motions[0]&motions[1], motions[2]&motions[3], etc. as
// lift/retract. An odd motion out is reported via UnpairedTailMotion.
func pairMotions(motions []model.MotionEvent) Result {
	var res Result
	k := 0
	for ; k+1 < len(motions); k += 2 {
		lift := motions[k]
		retract := motions[k+1]
		res.Boundaries = append(res.Boundaries, model.LayerBoundaries{
			LayerNumber: int64(len(res.Boundaries) + 1),
			Lifting:     model.Interval{Start: lift.StartIdx, End: lift.EndIdx},
			Retraction:  model.Interval{Start: retract.StartIdx, End: retract.EndIdx},
			Full:        model.Interval{Start: lift.StartIdx, End: retract.EndIdx},
		})
	}
	if k < len(motions) {
		res.UnpairedTailMotion = true
	}
	return res
}

func windowedMean(x []float64, window int) []float64 {
	n := len(x)
	out := make([]float64, n)
	half := window / 2
	for i := 0; i < n; i++ {
		lo := i - half
		hi := i + half
		sum := 0.0
		count := 0
		for j := lo; j < hi; j++ {
			sum += x[reflectIndex(j, n)]
			count++
		}
		out[i] = sum / float64(count)
	}
	return out
}

func windowMean(x []float64, start, window int) float64 {
	n := len(x)
	end := start + window
	if end > n {
		end = n
	}
	if end <= start {
		return x[reflectIndex(start, n)]
	}
	sum := 0.0
	for i := start; i < end; i++ {
		sum += x[i]
	}
	return sum / float64(end-start)
}

func reflectIndex(idx, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	idx %= period
	if idx < 0 {
		idx += period
	}
	if idx < n {
		return idx
	}
	return period - 1 - idx
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	s, _ := stats.StandardDeviation(xs)
	return s
}
