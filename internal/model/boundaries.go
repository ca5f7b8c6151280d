package model

import "fmt"

// Interval is a half-open sample-index range [Start, End) over a parent
// SampleRecord.
type Interval struct {
	Start int
	End   int
}

// Len reports the number of samples the interval covers.
func (iv Interval) Len() int {
	return iv.End - iv.Start
}

// MotionEvent is the Segmenter's internal intermediate: one stage
// excursion whose magnitude fell within [expected_lift_mm - tol,
// expected_lift_mm + tol].
type MotionEvent struct {
	StartIdx     int
	EndIdx       int
	SignedDistMM float64
}

// LayerBoundaries locates one lift/retract cycle within a parent
// SampleRecord as three half-open sample-index intervals. Invariant:
// Lifting.Start < Lifting.End <= Retraction.Start < Retraction.End, and
// Full spans Lifting.Start to Retraction.End.
type LayerBoundaries struct {
	LayerNumber int64
	Lifting     Interval
	Retraction  Interval
	Full        Interval
}

// Validate checks the segmentation-monotonicity invariant from spec.md
// §8.1: l0 < l1 <= r0 < r1.
func (b LayerBoundaries) Validate() error {
	if !(b.Lifting.Start < b.Lifting.End &&
		b.Lifting.End <= b.Retraction.Start &&
		b.Retraction.Start < b.Retraction.End) {
		return fmt.Errorf("model: layer %d boundaries violate l0<l1<=r0<r1 (lifting=%v retraction=%v)",
			b.LayerNumber, b.Lifting, b.Retraction)
	}
	if b.Full.Start != b.Lifting.Start || b.Full.End != b.Retraction.End {
		return fmt.Errorf("model: layer %d full interval does not span lifting..retraction", b.LayerNumber)
	}
	return nil
}
