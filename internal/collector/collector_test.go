package collector

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhesion-metrics/internal/config"
	"adhesion-metrics/internal/model"
)

func feedTriangularLayer(c *Collector, n int, peak float64) {
	dt := 0.02
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n-1)
		var force float64
		switch {
		case frac < 0.4:
			force = peak * (frac / 0.4)
		case frac < 0.6:
			force = peak
		default:
			tail := (frac - 0.6) / 0.4
			force = peak * (1 - tail)
		}
		c.AddSample(float64(i)*dt, -6.0*frac, force)
	}
}

func TestCollectorEmitsMetricsThroughSink(t *testing.T) {
	c := New(config.Default(), 10, 50)
	defer c.Shutdown(false)

	var mu sync.Mutex
	var got *model.LayerMetrics

	c.StartLayer(1)
	feedTriangularLayer(c, 200, 5.0)
	c.FinishLayer(func(m model.LayerMetrics) {
		mu.Lock()
		defer mu.Unlock()
		cp := m
		got = &cp
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int64(1), got.LayerNumber)
	assert.InDelta(t, 5.0, got.PeakForceN, 0.5)
}

func TestCollectorDiscardsSamplesWithoutActiveLayer(t *testing.T) {
	c := New(config.Default(), 10, 50)
	defer c.Shutdown(true)

	c.AddSample(0, 0, 0)
	assert.Equal(t, uint64(1), c.counters.DroppedSamples.Load())
}

func TestCollectorLatestMetricsUpdates(t *testing.T) {
	c := New(config.Default(), 10, 50)
	defer c.Shutdown(false)

	assert.Nil(t, c.LatestMetrics())

	c.StartLayer(7)
	feedTriangularLayer(c, 200, 3.0)
	done := make(chan struct{})
	c.FinishLayer(func(model.LayerMetrics) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for analysis")
	}

	latest := c.LatestMetrics()
	require.NotNil(t, latest)
	assert.Equal(t, int64(7), latest.LayerNumber)
}

func TestCollectorShutdownDiscardDropsPendingJobs(t *testing.T) {
	c := New(config.Default(), 10, 50, WithQueueCapacity(4))
	var processed int
	var mu sync.Mutex

	started := make(chan struct{})
	release := make(chan struct{})

	c.StartLayer(0)
	feedTriangularLayer(c, 200, 2.0)
	c.FinishLayer(func(model.LayerMetrics) {
		close(started)
		<-release
		mu.Lock()
		processed++
		mu.Unlock()
	})

	<-started // worker is now blocked inside layer 0's sink

	for i := 1; i < 3; i++ {
		c.StartLayer(int64(i))
		feedTriangularLayer(c, 200, 2.0)
		c.FinishLayer(func(model.LayerMetrics) {
			mu.Lock()
			processed++
			mu.Unlock()
		})
	}

	shutdownDone := make(chan struct{})
	go func() {
		c.Shutdown(true)
		close(shutdownDone)
	}()

	require.Eventually(t, func() bool { return c.discarding.Load() }, time.Second, 5*time.Millisecond)
	close(release) // let layer 0 finish; layers 1 and 2 are still queued behind it

	select {
	case <-shutdownDone:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for shutdown")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, processed, "only the job already being processed should complete")
	assert.Equal(t, uint64(2), c.counters.DroppedJobs.Load())
}

func TestRingBufferDropsOldestOnOverflow(t *testing.T) {
	rb := newRingBuffer(2)
	rb.append(model.Sample{TimeS: 0})
	rb.append(model.Sample{TimeS: 1})
	dropped := rb.append(model.Sample{TimeS: 2})
	assert.True(t, dropped)
	snap := rb.snapshot(50)
	require.Len(t, snap.Samples, 2)
	assert.Equal(t, 1.0, snap.Samples[0].TimeS)
	assert.Equal(t, 2.0, snap.Samples[1].TimeS)
}
