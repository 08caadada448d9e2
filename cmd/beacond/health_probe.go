package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/beacon/pkg/collectors"
	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/health"
	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/runtime"
)

// Label keys read off a container's inspected config to build its
// active health probe. beacon has no declarative per-container
// health-check schema of its own (spec.md's config covers collectors
// and alert rules, not per-container checks), so a check is opted
// into the same way Docker Compose labels opt containers into other
// sidecar behavior.
const (
	healthLabelHTTP = "beacon.health.http"
	healthLabelTCP  = "beacon.health.tcp"
	healthLabelExec = "beacon.health.exec"
)

// healthProber drives active health.Checker probes for every tracked
// container that declares a check via labels, folding results through
// a per-container health.Status so a single flaky probe doesn't flip
// a container unhealthy — health.Status.Update requires
// health.Config.Retries consecutive failures before it will. A status
// flip is republished onto the bus as a KindLifecycle health_status
// event, which ContainerHealthRestartHook already consumes.
type healthProber struct {
	rt     runtime.Adapter
	bus    *events.Bus
	config health.Config

	mu       sync.Mutex
	statuses map[string]*health.Status
}

func newHealthProber(rt runtime.Adapter, bus *events.Bus) *healthProber {
	return &healthProber{
		rt:       rt,
		bus:      bus,
		config:   health.DefaultConfig(),
		statuses: make(map[string]*health.Status),
	}
}

// run ticks every interval, probing every currently-tracked container
// that has a health check configured. It runs until ctx is cancelled.
func (p *healthProber) run(ctx context.Context, interval time.Duration, tracker *targetTracker) {
	logger := log.WithComponent("beacond.health")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, target := range tracker.all() {
				p.probe(ctx, target, logger)
			}
		}
	}
}

func (p *healthProber) probe(ctx context.Context, target collectors.Target, logger zerolog.Logger) {
	info, err := p.rt.Inspect(ctx, target.ContainerID)
	if err != nil {
		return
	}

	checker := buildHealthChecker(target.ContainerID, p.rt.Name(), info.Config.Labels)
	if checker == nil {
		return
	}

	result := checker.Check(ctx)

	p.mu.Lock()
	status, tracked := p.statuses[target.ContainerID]
	if !tracked {
		status = health.NewStatus()
		p.statuses[target.ContainerID] = status
	}
	wasHealthy := status.Healthy
	status.Update(result, p.config)
	nowHealthy := status.Healthy
	p.mu.Unlock()

	logger.Debug().Str("container_id", target.ContainerID).Str("check", string(checker.Type())).
		Bool("healthy", result.Healthy).Str("message", result.Message).Msg("health probe result")

	if tracked && wasHealthy == nowHealthy {
		return
	}

	statusLabel := "healthy"
	if !nowHealthy {
		statusLabel = "unhealthy"
	}

	if err := p.bus.Publish(&events.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    "health." + string(checker.Type()),
		Kind:      events.KindLifecycle,
		Severity:  events.SeverityMedium,
		Labels:    map[string]string{"container_id": target.ContainerID, "status": statusLabel},
		Payload: events.LifecyclePayload{
			ContainerID:   target.ContainerID,
			ContainerName: target.ContainerName,
			Action:        events.LifecycleHealthStatus,
			Timestamp:     time.Now(),
		},
	}); err != nil {
		logger.Warn().Err(err).Str("container_id", target.ContainerID).Msg("failed to publish health status event")
	}
}

// buildHealthChecker selects and configures a health.Checker from a
// container's labels, checked in HTTP, TCP, exec order. A container
// declaring none of the beacon.health.* labels has no active probe.
func buildHealthChecker(containerID, runtimeBinary string, labels map[string]string) health.Checker {
	if url := labels[healthLabelHTTP]; url != "" {
		return health.NewHTTPChecker(url)
	}
	if addr := labels[healthLabelTCP]; addr != "" {
		return health.NewTCPChecker(addr)
	}
	if cmd := labels[healthLabelExec]; cmd != "" {
		fields := strings.Fields(cmd)
		if len(fields) == 0 {
			return nil
		}
		return health.NewExecChecker(fields).
			WithContainer(containerID).
			WithRuntime(runtimeBinary)
	}
	return nil
}
