// Package model holds the plain value types shared by every stage of the
// adhesion analysis pipeline: samples, layer boundaries, and the final
// per-layer metrics record. Nothing in this package has behavior beyond
// trivial validation — it borrows nothing and mutates nothing.
package model

import "fmt"

// Sample is one (time, position, force) reading from the load cell / stage
// encoder. Position convention: DECREASING value means the stage is
// LIFTING (moving away from the vat floor); increasing means RETRACTING.
type Sample struct {
	TimeS      float64
	PositionMM float64
	ForceN     float64
}

// SampleRecord is an ordered sequence of Samples from one acquisition
// session, plus a nominal sampling-rate hint. The hint is carried along
// only; the Segmenter and Calculator work in sample counts and do not
// read it.
type SampleRecord struct {
	Samples    []Sample
	NominalHz  float64
}

// Validate checks the structural invariants spec.md §3 requires of a
// SampleRecord: nondecreasing time. Gaps are not rejected here (the core
// does not own acquisition timing faults) — callers that need gap
// detection can scan Samples themselves.
func (r *SampleRecord) Validate() error {
	for i := 1; i < len(r.Samples); i++ {
		if r.Samples[i].TimeS < r.Samples[i-1].TimeS {
			return fmt.Errorf("sample record: time is not monotone nondecreasing at index %d (%.6f < %.6f)",
				i, r.Samples[i].TimeS, r.Samples[i-1].TimeS)
		}
	}
	return nil
}

// Len reports the number of samples in the record.
func (r *SampleRecord) Len() int {
	return len(r.Samples)
}

// Times, Positions and Forces return a dense copy of one field over the
// half-open index range [start, end). Panics on an out-of-range interval —
// this is the structural-invariant class of error spec.md §4.B/§7
// classifies as a programmer bug in the caller, not a soft failure.
func (r *SampleRecord) Times(start, end int) []float64 {
	return extract(r.Samples, start, end, func(s Sample) float64 { return s.TimeS })
}

func (r *SampleRecord) Positions(start, end int) []float64 {
	return extract(r.Samples, start, end, func(s Sample) float64 { return s.PositionMM })
}

func (r *SampleRecord) Forces(start, end int) []float64 {
	return extract(r.Samples, start, end, func(s Sample) float64 { return s.ForceN })
}

func extract(samples []Sample, start, end int, field func(Sample) float64) []float64 {
	if start < 0 || end > len(samples) || start > end {
		panic(fmt.Sprintf("model: invalid interval [%d, %d) over %d samples", start, end, len(samples)))
	}
	out := make([]float64, end-start)
	for i := start; i < end; i++ {
		out[i-start] = field(samples[i])
	}
	return out
}
