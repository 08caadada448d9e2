package collectors

import (
	"context"
	"sync"

	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// CollectorRegistry owns the set of registered collectors and fans a
// CollectAll call out to each enabled, healthy one concurrently.
type CollectorRegistry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
	order      []string
}

func NewCollectorRegistry() *CollectorRegistry {
	return &CollectorRegistry{collectors: make(map[string]Collector)}
}

// Register adds collector under its own Name(). A second
// registration under the same name replaces the first.
func (r *CollectorRegistry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.collectors[c.Name()]; !exists {
		r.order = append(r.order, c.Name())
	}
	r.collectors[c.Name()] = c
}

func (r *CollectorRegistry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	return c, ok
}

// All returns every registered collector in registration order.
func (r *CollectorRegistry) All() []Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Collector, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.collectors[name])
	}
	return out
}

// InitializeAll calls Initialize on every registered collector. A
// collector whose Initialize fails or returns false is left disabled
// so CollectAll skips it; other collectors are unaffected.
func (r *CollectorRegistry) InitializeAll(ctx context.Context) map[string]error {
	errs := make(map[string]error)
	for _, c := range r.All() {
		ok, err := c.Initialize(ctx)
		if err != nil {
			errs[c.Name()] = err
			c.SetEnabled(false)
			continue
		}
		if !ok {
			c.SetEnabled(false)
		}
	}
	return errs
}

// CleanupAll calls Cleanup on every registered collector.
func (r *CollectorRegistry) CleanupAll(ctx context.Context) {
	for _, c := range r.All() {
		_ = c.Cleanup(ctx)
	}
}

// CollectAll invokes collect_with_error_handling on every enabled,
// healthy collector concurrently and concatenates their samples.
// A failing collector's error is logged and excluded; it never
// affects another collector's results for the same target.
func (r *CollectorRegistry) CollectAll(ctx context.Context, target Target) []timeseries.MetricSample {
	collectors := r.All()

	var wg sync.WaitGroup
	resultsCh := make(chan []timeseries.MetricSample, len(collectors))

	for _, c := range collectors {
		if !c.Enabled() || !c.Status().Healthy {
			continue
		}

		wg.Add(1)
		go func(c Collector) {
			defer wg.Done()
			callCtx := ctx
			var cancel context.CancelFunc
			if c.Timeout() > 0 {
				callCtx, cancel = context.WithTimeout(ctx, c.Timeout())
				defer cancel()
			}
			samples, err := c.Collect(callCtx, target)
			if err != nil {
				log.WithComponent("collectors").Warn().Err(err).
					Str("collector", c.Name()).
					Str("container_id", target.ContainerID).
					Msg("collector failed")
				return
			}
			resultsCh <- samples
		}(c)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var all []timeseries.MetricSample
	for samples := range resultsCh {
		all = append(all, samples...)
	}
	return all
}

// Statuses returns every registered collector's current Status, keyed
// by name, for the health/metrics surface.
func (r *CollectorRegistry) Statuses() map[string]Status {
	out := make(map[string]Status)
	for _, c := range r.All() {
		out[c.Name()] = c.Status()
	}
	return out
}

