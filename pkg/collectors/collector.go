package collectors

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/beacon/pkg/obsmetrics"
	"github.com/cuemby/beacon/pkg/runtime"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// Target identifies the container a collection pass should cover.
type Target struct {
	ContainerID   string
	ContainerName string
}

// Status is a collector's self-reported health, per the spec's
// `status()` contract.
type Status struct {
	SuccessCount    int
	ErrorCount      int
	LastError       string
	Healthy         bool
	LastCollection  time.Time
}

// Collector is a pluggable producer of samples for a target.
type Collector interface {
	Name() string
	Initialize(ctx context.Context) (bool, error)
	Cleanup(ctx context.Context) error
	MetricTypes() []string
	Collect(ctx context.Context, target Target) ([]timeseries.MetricSample, error)
	Status() Status
	Enabled() bool
	SetEnabled(enabled bool)
	// Timeout bounds a single Collect call; the registry cancels the
	// context passed to Collect once this elapses.
	Timeout() time.Duration
}

// consecutiveErrorThreshold is the number of consecutive failures
// after which a collector is marked unhealthy.
const consecutiveErrorThreshold = 5

// baseCollector implements the shared collect_with_error_handling
// discipline and bookkeeping every concrete collector embeds.
type baseCollector struct {
	name    string
	enabled bool
	timeout time.Duration

	mu                 sync.Mutex
	successCount       int
	errorCount         int
	consecutiveErrors  int
	lastError          string
	healthy            bool
	lastCollectionTime time.Time
}

func newBaseCollector(name string, timeout time.Duration) baseCollector {
	return baseCollector{name: name, enabled: true, timeout: timeout, healthy: true}
}

func (b *baseCollector) Enabled() bool        { return b.enabled }
func (b *baseCollector) SetEnabled(e bool)    { b.enabled = e }
func (b *baseCollector) Timeout() time.Duration { return b.timeout }

func (b *baseCollector) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		SuccessCount:   b.successCount,
		ErrorCount:     b.errorCount,
		LastError:      b.lastError,
		Healthy:        b.healthy,
		LastCollection: b.lastCollectionTime,
	}
}

// collectWithErrorHandling runs fn, then updates the shared counters:
// a failure increments the error count and the consecutive-error
// streak, flipping Healthy false once the streak reaches
// consecutiveErrorThreshold; a success resets the streak and flips
// Healthy back to true immediately.
func (b *baseCollector) collectWithErrorHandling(ctx context.Context, fn func(context.Context) ([]timeseries.MetricSample, error)) ([]timeseries.MetricSample, error) {
	timer := obsmetrics.NewTimer()
	samples, err := fn(ctx)
	timer.ObserveDurationVec(obsmetrics.CollectorDuration, b.name)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.errorCount++
		b.consecutiveErrors++
		b.lastError = err.Error()
		if b.consecutiveErrors >= consecutiveErrorThreshold {
			b.healthy = false
		}
		obsmetrics.CollectorErrorsTotal.WithLabelValues(b.name).Inc()
		return nil, err
	}
	b.successCount++
	b.consecutiveErrors = 0
	b.healthy = true
	b.lastCollectionTime = time.Now()
	obsmetrics.CollectorSamplesTotal.WithLabelValues(b.name).Add(float64(len(samples)))
	return samples, nil
}

// runtimeBound is embedded by every collector that drives a
// container-runtime adapter. Initialize probes the preferred adapter
// first, falling back on failure, and records the winning adapter's
// name — used as the `runtime` label on every sample these collectors
// emit.
type runtimeBound struct {
	preferred runtime.Adapter
	fallback  runtime.Adapter
	active    runtime.Adapter
}

func (r *runtimeBound) initialize(ctx context.Context) (bool, error) {
	adapter, err := runtime.Probe(ctx, r.preferred, r.fallback)
	if err != nil {
		return false, err
	}
	r.active = adapter
	return true, nil
}

func (r *runtimeBound) runtimeLabel() string {
	if r.active == nil {
		return ""
	}
	return r.active.Name()
}
