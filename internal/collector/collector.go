// Package collector implements component E: the live per-layer ring
// buffer and its analysis worker. It is the concurrent counterpart to
// internal/batch — instead of segmenting a whole file up front, each
// layer's boundary is known trivially (the whole buffer) because the
// host tells the collector when a layer starts and ends.
//
// Scheduling model follows spec.md §4.E/§5: one producer (the sensor
// callback, via AddSample), one consumer (a single background analysis
// worker goroutine), handed off through one bounded channel. The
// producer never blocks; a full queue drops the oldest pending job.
package collector

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"adhesion-metrics/internal/calculator"
	"adhesion-metrics/internal/config"
	"adhesion-metrics/internal/diagnostics"
	"adhesion-metrics/internal/model"
	"adhesion-metrics/internal/trend"
)

const defaultQueueCapacity = 16

// analysisJob is one frozen layer awaiting the worker.
type analysisJob struct {
	record *model.SampleRecord
	bounds model.LayerBoundaries
	sink   Sink
}

// Sink receives completed LayerMetrics from the analysis worker. It is
// invoked only from the worker goroutine and must be safe to call
// repeatedly; if the caller's sink itself touches shared UI/state it is
// responsible for its own synchronization (spec.md §5).
type Sink func(model.LayerMetrics)

// Collector is the single-threaded per-layer state machine described in
// spec.md §4.E. Its exported methods (StartLayer/AddSample/FinishLayer)
// are NOT safe for concurrent use by multiple goroutines — the sensor
// thread is the sole caller, matching the single-producer model.
type Collector struct {
	cfg config.PipelineConfig
	log *logrus.Logger

	buffer      *ringBuffer
	nominalHz   float64
	layerActive bool
	layerNumber int64

	jobs         chan analysisJob
	shutdownOnce sync.Once
	workerDone   chan struct{}
	discarding   atomic.Bool

	counters *diagnostics.Counters
	bus      *diagnostics.Bus

	tracker *trend.Tracker
	scorer  *trend.Scorer

	latest atomic.Pointer[model.LayerMetrics]
}

// Option configures a Collector at construction.
type Option func(*Collector)

// WithQueueCapacity overrides the default bounded-channel capacity (16).
func WithQueueCapacity(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.jobs = make(chan analysisJob, n)
		}
	}
}

// WithDiagnostics attaches shared counters and a diagnostics bus.
func WithDiagnostics(counters *diagnostics.Counters, bus *diagnostics.Bus) Option {
	return func(c *Collector) {
		c.counters = counters
		c.bus = bus
	}
}

// WithLogger overrides the default standard logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Collector) { c.log = log }
}

// New constructs a Collector and starts its analysis worker goroutine.
// maxLayerDurationS and nominalHz size the per-layer ring buffer per
// spec.md §4.E ("pre-sized for >= max_layer_duration_s * nominal_rate").
func New(cfg config.PipelineConfig, maxLayerDurationS, nominalHz float64, opts ...Option) *Collector {
	capacity := int(maxLayerDurationS*nominalHz) + 1
	c := &Collector{
		cfg:        cfg,
		log:        logrus.StandardLogger(),
		buffer:     newRingBuffer(capacity),
		nominalHz:  nominalHz,
		jobs:       make(chan analysisJob, defaultQueueCapacity),
		workerDone: make(chan struct{}),
		counters:   &diagnostics.Counters{},
		tracker:    trend.NewTracker(),
		scorer:     trend.NewScorer(0.2),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.runWorker()
	return c
}

// StartLayer resets the buffer and begins collection for layer_number.
func (c *Collector) StartLayer(layerNumber int64) {
	c.buffer.reset()
	c.layerActive = true
	c.layerNumber = layerNumber
}

// AddSample appends one sample to the active layer's buffer. If no
// layer is active the sample is discarded (spec.md §6 Live API).
func (c *Collector) AddSample(timeS, positionMM, forceN float64) {
	if !c.layerActive {
		c.counters.DroppedSamples.Add(1)
		return
	}
	dropped := c.buffer.append(model.Sample{TimeS: timeS, PositionMM: positionMM, ForceN: forceN})
	if dropped {
		c.counters.RingBufferOverflows.Add(1)
		c.publish(c.layerNumber, "ring_buffer_overflow", "oldest sample dropped")
	}
}

// FinishLayer snapshots the active buffer into an immutable
// SampleRecord, builds a trivial whole-buffer LayerBoundaries, and
// enqueues the pair for analysis. sink receives the resulting
// LayerMetrics from the worker goroutine once ready. If the queue is
// full, the oldest pending job is dropped (never this new one) so
// acquisition never stalls.
func (c *Collector) FinishLayer(sink Sink) {
	if !c.layerActive {
		return
	}
	c.layerActive = false

	record := c.buffer.snapshot(c.nominalHz)
	bounds := model.LayerBoundaries{
		LayerNumber: c.layerNumber,
		Lifting:     model.Interval{Start: 0, End: len(record.Samples)},
		Retraction:  model.Interval{Start: len(record.Samples), End: len(record.Samples)},
		Full:        model.Interval{Start: 0, End: len(record.Samples)},
	}
	// A trivial whole-buffer boundary has an empty retraction interval,
	// which Validate() rejects; computeMetrics passes it through
	// liveBounds, which turns the final sample into a one-sample
	// retraction interval, before calling the Calculator.
	job := analysisJob{record: record, bounds: bounds, sink: sink}
	c.enqueue(job)
}

// enqueue performs the non-blocking, drop-oldest hand-off.
func (c *Collector) enqueue(job analysisJob) {
	select {
	case c.jobs <- job:
		return
	default:
	}
	// Queue full: drop the oldest pending job, then enqueue this one.
	select {
	case <-c.jobs:
		c.counters.DroppedJobs.Add(1)
		c.publish(c.layerNumber, "analysis_queue_overflow", "oldest pending job dropped")
	default:
	}
	select {
	case c.jobs <- job:
	default:
		// Raced with another producer; extremely unlikely under the
		// single-producer model but never block regardless.
		c.counters.DroppedJobs.Add(1)
	}
}

// Shutdown stops the worker. When discard is false, pending jobs are
// drained (their sinks invoked) before the worker exits; when true, any
// job still sitting in the queue at the moment Shutdown is called is
// dropped unprocessed — only a job the worker had already dequeued
// before Shutdown ran finishes normally.
func (c *Collector) Shutdown(discard bool) {
	c.shutdownOnce.Do(func() {
		if discard {
			c.discarding.Store(true)
		}
		close(c.jobs)
	})
	<-c.workerDone
}

// LatestMetrics returns the most recently completed LayerMetrics, or
// nil if none have completed yet. Safe for concurrent readers; backed
// by an atomic pointer so it never contends with the worker goroutine.
func (c *Collector) LatestMetrics() *model.LayerMetrics {
	return c.latest.Load()
}

func (c *Collector) runWorker() {
	defer close(c.workerDone)
	for job := range c.jobs {
		if c.discarding.Load() {
			c.counters.DroppedJobs.Add(1)
			continue
		}
		metrics := c.computeMetrics(job)
		c.latest.Store(&metrics)
		c.publishTrend(job.bounds.LayerNumber, metrics)
		if job.sink != nil {
			job.sink(metrics)
		}
	}
}

// publishTrend feeds the session trend tracker (spec.md/SPEC_FULL.md
// §4.I) and surfaces its readout as a diagnostics event; it never
// influences metrics, it only observes them in layer-finish order.
func (c *Collector) publishTrend(layerNumber int64, metrics model.LayerMetrics) {
	sample := c.tracker.Update(metrics.PeakForceN, metrics.BaselineForceN)
	score := c.scorer.Score(metrics.PeakForceN, metrics.SignalToNoiseRatio, metrics.StiffnessR2)
	c.publish(layerNumber, "layer_quality_score", fmt.Sprintf("score=%.1f peak_ema_5=%.3f", score, sample.PeakForceEMA[5]))
}

func (c *Collector) computeMetrics(job analysisJob) (result model.LayerMetrics) {
	result = model.NaNMetrics(job.bounds.LayerNumber)
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("layer", job.bounds.LayerNumber).Errorf("collector: calculator panic: %v", r)
			result = model.NaNMetrics(job.bounds.LayerNumber)
		}
	}()
	if job.bounds.Lifting.Len() < 2 {
		return result
	}
	return calculator.Compute(job.record, liveBounds(job.bounds), c.cfg)
}

// liveBounds satisfies Validate()'s l1<=r0<r1 requirement for the live
// path's trivial whole-buffer boundary, which arrives with an empty
// retraction interval (the host freezes a layer at lift/retract
// completion; there are no retraction samples in the live buffer). The
// final sample is reserved as a length-1 pseudo-retraction interval so
// the Calculator — which only reads the lifting half for event
// detection — still receives a structurally valid LayerBoundaries.
func liveBounds(b model.LayerBoundaries) model.LayerBoundaries {
	if b.Retraction.Len() > 0 {
		return b
	}
	end := b.Lifting.End
	if end < 2 {
		return b
	}
	b.Lifting.End = end - 1
	b.Retraction = model.Interval{Start: end - 1, End: end}
	return b
}

func (c *Collector) publish(layerID int64, kind, detail string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(diagnostics.Event{Kind: kind, Detail: detail, LayerID: layerID})
}
