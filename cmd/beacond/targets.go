package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/beacon/pkg/collectors"
	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/runtime"
)

// targetTracker maintains the set of containers beacond currently
// collects against. The runtime adapter has no "list containers"
// sub-command in spec.md's external-interfaces contract, so targets
// are discovered the same way the spec's event collector does it: by
// watching the runtime's own event feed. A container is added on its
// create or start event and removed on its destroy event; stop and die
// events leave it in the set.
type targetTracker struct {
	mu      sync.Mutex
	targets map[string]collectors.Target
}

func newTargetTracker() *targetTracker {
	return &targetTracker{targets: make(map[string]collectors.Target)}
}

func (t *targetTracker) upsert(target collectors.Target) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.targets[target.ContainerID] = target
}

func (t *targetTracker) remove(containerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.targets, containerID)
}

func (t *targetTracker) all() []collectors.Target {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]collectors.Target, 0, len(t.targets))
	for _, target := range t.targets {
		out = append(out, target)
	}
	return out
}

// watchRuntimeEvents consumes the adapter's container event feed,
// keeping tracker in sync and republishing every event onto bus as a
// KindLifecycle event, which pkg/lifecycle.Manager (already
// subscribed) derives restart-loop and uptime metrics from. It runs
// until ctx is cancelled.
func watchRuntimeEvents(ctx context.Context, rt runtime.Adapter, tracker *targetTracker, bus *events.Bus) {
	logger := log.WithComponent("beacond.events")

	eventsCh, errCh, err := rt.Events(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to subscribe to runtime event feed")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				logger.Warn().Err(err).Msg("runtime event feed error")
			}
		case re, ok := <-eventsCh:
			if !ok {
				return
			}
			handleRuntimeEvent(re, tracker, bus, logger)
		}
	}
}

// lifecycleActions maps a runtime CLI event's Action string to the
// LifecycleAction enum carried on the bus.
var lifecycleActions = map[string]events.LifecycleAction{
	"create":    events.LifecycleCreate,
	"start":     events.LifecycleStart,
	"stop":      events.LifecycleStop,
	"restart":   events.LifecycleRestart,
	"die":       events.LifecycleDie,
	"kill":      events.LifecycleKill,
	"pause":     events.LifecyclePause,
	"unpause":   events.LifecycleUnpause,
	"destroy":   events.LifecycleDestroy,
	"health_status": events.LifecycleHealthStatus,
}

func handleRuntimeEvent(re runtime.Event, tracker *targetTracker, bus *events.Bus, logger zerolog.Logger) {
	if re.Type != "container" {
		return
	}

	action, known := lifecycleActions[re.Action]
	if !known {
		return
	}

	containerID := re.Actor.ID
	containerName := re.Actor.Attributes["name"]

	switch action {
	case events.LifecycleCreate, events.LifecycleStart:
		tracker.upsert(collectors.Target{ContainerID: containerID, ContainerName: containerName})
	case events.LifecycleDestroy:
		tracker.remove(containerID)
	}

	payload := events.LifecyclePayload{
		ContainerID:   containerID,
		ContainerName: containerName,
		Action:        action,
		Timestamp:     time.Unix(re.Time, 0),
	}

	if err := bus.Publish(&events.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    "runtime." + re.Type,
		Kind:      events.KindLifecycle,
		Severity:  events.SeverityInfo,
		Labels:    map[string]string{"container_id": containerID},
		Payload:   payload,
	}); err != nil {
		logger.Warn().Err(err).Str("container_id", containerID).Msg("failed to publish lifecycle event")
	}
}
