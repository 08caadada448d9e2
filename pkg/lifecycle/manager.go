package lifecycle

import (
	"context"
	"time"

	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// Manager subscribes to KindLifecycle events, keeps a RestartTracker
// and UptimeTracker up to date per container, and writes the derived
// metric samples into a timeseries.Store.
type Manager struct {
	store    timeseries.Store
	restarts *RestartTracker
	uptime   *UptimeTracker
	now      func() time.Time
}

// NewManager builds a Manager. restartWindow bounds the restart-loop
// rolling window; uptimeWindow bounds the uptime-percentage tracking
// window.
func NewManager(store timeseries.Store, restartWindow, uptimeWindow time.Duration) *Manager {
	return &Manager{
		store:    store,
		restarts: NewRestartTracker(restartWindow),
		uptime:   NewUptimeTracker(uptimeWindow),
		now:      time.Now,
	}
}

// Attach subscribes the manager to bus for KindLifecycle events.
func (m *Manager) Attach(bus *events.Bus) string {
	return bus.Subscribe(m.HandleEvent, []events.Kind{events.KindLifecycle}, nil, 0)
}

// HandleEvent implements events.Handler. It updates the relevant
// tracker(s) for the event's container and immediately re-emits that
// container's derived metrics.
func (m *Manager) HandleEvent(ctx context.Context, e *events.Event) error {
	payload, ok := e.Payload.(events.LifecyclePayload)
	if !ok {
		return nil
	}

	at := payload.Timestamp
	if at.IsZero() {
		at = m.now()
	}

	switch payload.Action {
	case events.LifecycleStart:
		m.uptime.RecordStart(payload.ContainerID, at)
	case events.LifecycleRestart:
		m.restarts.RecordRestart(payload.ContainerID, at)
		m.uptime.RecordStop(payload.ContainerID, at)
		m.uptime.RecordStart(payload.ContainerID, at)
	case events.LifecycleStop, events.LifecycleDie, events.LifecycleKill, events.LifecycleDestroy:
		m.uptime.RecordStop(payload.ContainerID, at)
	}

	samples := m.Emit(payload.ContainerID, payload.ContainerName, at)
	if len(samples) == 0 {
		return nil
	}
	if err := m.store.Store(ctx, samples); err != nil {
		log.WithComponent("lifecycle").Error().Err(err).Str("container_id", payload.ContainerID).Msg("failed to store lifecycle metrics")
		return err
	}
	return nil
}

// Emit computes the current derived MetricSample set for one
// container without touching the store — used by HandleEvent and
// available directly for periodic re-emission outside an event.
func (m *Manager) Emit(containerID, containerName string, now time.Time) []timeseries.MetricSample {
	labels := map[string]string{"container_id": containerID}
	if containerName != "" {
		labels["container_name"] = containerName
	}

	restartSummary := m.restarts.Summary(containerID, now)
	uptimeSummary := m.uptime.Summary(containerID, now)

	isLoop := 0.0
	if restartSummary.IsRestartLoop {
		isLoop = 1.0
	}

	return []timeseries.MetricSample{
		{Name: "container_uptime_seconds", Labels: labels, Value: uptimeSummary.CurrentUptime.Seconds(), Timestamp: now},
		{Name: "container_restarts_total", Labels: labels, Value: float64(restartSummary.TotalRestarts), Timestamp: now},
		{Name: "container_is_restart_loop", Labels: labels, Value: isLoop, Timestamp: now},
		{Name: "container_restart_rate_per_hour", Labels: labels, Value: restartSummary.RatePerHour, Timestamp: now},
		{Name: "container_uptime_percentage", Labels: labels, Value: uptimeSummary.UptimePercentage, Timestamp: now},
	}
}
