package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/obsmetrics"
	"github.com/google/uuid"
)

const defaultHookTimeout = 30 * time.Second

// Stats is a snapshot of a single hook's execution counters.
type Stats struct {
	Runs     uint64
	Failures uint64
	MinMs    float64
	MaxMs    float64
	TotalMs  float64
}

// Average returns the mean execution time in milliseconds, or 0 if
// the hook has never run.
func (s Stats) Average() float64 {
	if s.Runs == 0 {
		return 0
	}
	return s.TotalMs / float64(s.Runs)
}

// Dispatcher resolves, orders, and runs the hooks triggered by an
// event, bounding total in-flight hook executions with a global
// semaphore.
type Dispatcher struct {
	registry *Registry
	sem      chan struct{}

	statsMu sync.Mutex
	stats   map[string]*Stats

	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

// NewDispatcher creates a Dispatcher bound to registry, allowing at
// most maxConcurrent hooks to be executing at any moment across all
// calls to Dispatch.
func NewDispatcher(registry *Registry, maxConcurrent int) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Dispatcher{
		registry: registry,
		sem:      make(chan struct{}, maxConcurrent),
		stats:    make(map[string]*Stats),
		inFlight: make(map[string]struct{}),
	}
}

// Dispatch resolves the hooks triggered by event, orders them, and
// runs them sequentially — each hook's result is folded into the
// HookContext passed to the next. A failing, erroring, or timed-out
// hook never stops the remaining hooks in the list.
func (d *Dispatcher) Dispatch(ctx context.Context, event *events.Event) []HookResult {
	logger := log.WithEventID(event.ID)

	candidates := d.registry.ForEvent(event.Kind)
	ids := make([]string, 0, len(candidates))
	byID := make(map[string]Hook, len(candidates))
	for _, h := range candidates {
		ids = append(ids, h.ID())
		byID[h.ID()] = h
	}

	order, err := d.registry.ExecutionOrder(ids)
	if err != nil {
		logger.Warn().Err(err).Msg("execution order failed, falling back to priority order")
		order = priorityFallbackOrder(candidates)
	}

	hctx := &HookContext{
		TriggerEvent: event,
		ExecutionID:  uuid.NewString(),
		Timestamp:    time.Now(),
	}

	results := make([]HookResult, 0, len(order))
	for _, id := range order {
		hook, ok := byID[id]
		if !ok || !hook.Enabled() {
			continue
		}

		if !d.safeShouldExecute(hook, hctx) {
			continue
		}

		result := d.runHook(ctx, hook, hctx)
		results = append(results, result)
		hctx = hctx.withResult(result)
		d.recordStats(hook.ID(), result)

		outcome := "success"
		if !result.Success {
			outcome = "failure"
		}
		obsmetrics.HookRunsTotal.WithLabelValues(hook.ID(), outcome).Inc()
		obsmetrics.HookExecutionDuration.WithLabelValues(hook.ID()).Observe(result.ExecutionTimeMs / 1000.0)
	}

	return results
}

func priorityFallbackOrder(hooks []Hook) []string {
	sorted := make([]Hook, len(hooks))
	copy(sorted, hooks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	order := make([]string, len(sorted))
	for i, h := range sorted {
		order[i] = h.ID()
	}
	return order
}

func (d *Dispatcher) safeShouldExecute(hook Hook, ctx *HookContext) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.WithHookID(hook.ID()).Error().Interface("panic", r).Msg("should_execute panicked, skipping hook")
			ok = false
		}
	}()
	return hook.ShouldExecute(ctx)
}

func (d *Dispatcher) runHook(parent context.Context, hook Hook, hctx *HookContext) HookResult {
	start := time.Now()
	timeout := hook.Timeout()
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	select {
	case d.sem <- struct{}{}:
		defer func() { <-d.sem }()
	case <-ctx.Done():
		return d.timeoutResult(hook.ID(), start)
	}

	d.markInFlight(hook.ID(), true)
	defer d.markInFlight(hook.ID(), false)

	obsmetrics.HooksInFlight.Inc()
	defer obsmetrics.HooksInFlight.Dec()

	resultCh := make(chan HookResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- HookResult{
					HookID:  hook.ID(),
					Success: false,
					Message: fmt.Sprintf("hook %s panicked: %v", hook.ID(), r),
					Error:   errs.New(errs.Execution, "execute", fmt.Errorf("%v", r)),
				}
			}
		}()
		resultCh <- hook.Execute(ctx, hctx)
	}()

	select {
	case result := <-resultCh:
		result.HookID = hook.ID()
		result.ExecutionTimeMs = float64(time.Since(start).Milliseconds())
		return result
	case <-ctx.Done():
		return d.timeoutResult(hook.ID(), start)
	}
}

func (d *Dispatcher) timeoutResult(hookID string, start time.Time) HookResult {
	elapsedMs := float64(time.Since(start).Milliseconds())
	return HookResult{
		HookID:          hookID,
		Success:         false,
		Message:         fmt.Sprintf("hook %s timed out", hookID),
		Suggestions:     []string{"Increase the hook timeout", "Optimize the hook's execution"},
		ExecutionTimeMs: elapsedMs,
		Error:           errs.New(errs.Timeout, "execute", fmt.Errorf("hook %s exceeded its timeout", hookID)),
	}
}

func (d *Dispatcher) markInFlight(id string, executing bool) {
	d.inFlightMu.Lock()
	defer d.inFlightMu.Unlock()
	if executing {
		d.inFlight[id] = struct{}{}
	} else {
		delete(d.inFlight, id)
	}
}

// InFlight returns the ids of hooks currently executing.
func (d *Dispatcher) InFlight() []string {
	d.inFlightMu.Lock()
	defer d.inFlightMu.Unlock()
	out := make([]string, 0, len(d.inFlight))
	for id := range d.inFlight {
		out = append(out, id)
	}
	return out
}

func (d *Dispatcher) recordStats(id string, result HookResult) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()

	s, ok := d.stats[id]
	if !ok {
		s = &Stats{MinMs: result.ExecutionTimeMs}
		d.stats[id] = s
	}
	s.Runs++
	if !result.Success {
		s.Failures++
	}
	s.TotalMs += result.ExecutionTimeMs
	if result.ExecutionTimeMs < s.MinMs || s.Runs == 1 {
		s.MinMs = result.ExecutionTimeMs
	}
	if result.ExecutionTimeMs > s.MaxMs {
		s.MaxMs = result.ExecutionTimeMs
	}
}

// Stats returns a snapshot of every hook's execution counters.
func (d *Dispatcher) Stats() map[string]Stats {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	out := make(map[string]Stats, len(d.stats))
	for id, s := range d.stats {
		out[id] = *s
	}
	return out
}
