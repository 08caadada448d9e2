package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/timeseries"
)

func TestRestartTrackerDetectsLoopAfterFourFastRestarts(t *testing.T) {
	tracker := NewRestartTracker(time.Hour)
	base := time.Unix(1700000000, 0)
	for i := 0; i < 4; i++ {
		tracker.RecordRestart("c1", base.Add(time.Duration(i)*30*time.Second))
	}
	summary := tracker.Summary("c1", base.Add(2*time.Minute))
	assert.Equal(t, 4, summary.WindowedCount)
	assert.Equal(t, 4, summary.TotalRestarts)
	assert.True(t, summary.IsRestartLoop)
	assert.Equal(t, events.SeverityMedium, summary.Severity)
}

func TestRestartTrackerEscalatesSeverityAtSixRestarts(t *testing.T) {
	tracker := NewRestartTracker(time.Hour)
	base := time.Unix(1700000000, 0)
	for i := 0; i < 6; i++ {
		tracker.RecordRestart("c1", base.Add(time.Duration(i)*20*time.Second))
	}
	summary := tracker.Summary("c1", base.Add(3*time.Minute))
	assert.True(t, summary.IsRestartLoop)
	assert.Equal(t, events.SeverityCritical, summary.Severity)
}

func TestRestartTrackerNotALoopWhenIntervalsAreSlow(t *testing.T) {
	tracker := NewRestartTracker(time.Hour)
	base := time.Unix(1700000000, 0)
	for i := 0; i < 4; i++ {
		tracker.RecordRestart("c1", base.Add(time.Duration(i)*5*time.Minute))
	}
	summary := tracker.Summary("c1", base.Add(30*time.Minute))
	assert.False(t, summary.IsRestartLoop)
	assert.Equal(t, events.Severity(""), summary.Severity)
}

func TestRestartTrackerPrunesOutsideWindow(t *testing.T) {
	tracker := NewRestartTracker(10 * time.Minute)
	base := time.Unix(1700000000, 0)
	tracker.RecordRestart("c1", base)
	summary := tracker.Summary("c1", base.Add(time.Hour))
	assert.Equal(t, 0, summary.WindowedCount)
	assert.Equal(t, 1, summary.TotalRestarts) // lifetime count survives pruning
}

func TestUptimeTrackerComputesPercentageAndGrade(t *testing.T) {
	tracker := NewUptimeTracker(time.Hour)
	base := time.Unix(1700000000, 0)
	tracker.RecordStart("c1", base)
	tracker.RecordStop("c1", base.Add(54*time.Minute)) // 90% of the hour

	summary := tracker.Summary("c1", base.Add(time.Hour))
	assert.InDelta(t, 90.0, summary.UptimePercentage, 0.5)
	assert.Equal(t, GradeFair, summary.Grade)
	assert.Equal(t, 1, summary.SessionCount)
}

func TestUptimeTrackerCurrentUptimeWhileRunning(t *testing.T) {
	tracker := NewUptimeTracker(time.Hour)
	base := time.Unix(1700000000, 0)
	tracker.RecordStart("c1", base)

	summary := tracker.Summary("c1", base.Add(5*time.Minute))
	assert.Equal(t, 5*time.Minute, summary.CurrentUptime)
	assert.Equal(t, GradeExcellent, summary.Grade) // fully up within the window so far
}

func TestUptimeTrackerDuplicateStartIsIgnored(t *testing.T) {
	tracker := NewUptimeTracker(time.Hour)
	base := time.Unix(1700000000, 0)
	tracker.RecordStart("c1", base)
	tracker.RecordStart("c1", base.Add(time.Minute)) // ignored, already running
	summary := tracker.Summary("c1", base.Add(2*time.Minute))
	assert.Equal(t, 1, summary.SessionCount)
	assert.Equal(t, 2*time.Minute, summary.CurrentUptime)
}

func TestManagerEmitsMetricsOnLifecycleEvents(t *testing.T) {
	store := timeseries.NewMemoryStore(0)
	mgr := NewManager(store, time.Hour, time.Hour)
	bus := events.NewBus(10)
	mgr.Attach(bus)
	bus.Start()
	defer bus.Stop()

	base := time.Unix(1700000000, 0)
	startEvt := &events.Event{
		ID: "e1", Kind: events.KindLifecycle, Timestamp: base,
		Payload: events.LifecyclePayload{ContainerID: "c1", ContainerName: "web", Action: events.LifecycleStart, Timestamp: base},
	}
	require.NoError(t, bus.Publish(startEvt))

	require.Eventually(t, func() bool {
		latest, ok, err := store.QueryLatest(context.Background(), "container_uptime_seconds", map[string]string{"container_id": "c1", "container_name": "web"})
		return err == nil && ok && latest != nil
	}, time.Second, 5*time.Millisecond)
}

func TestManagerEmitDirectlyReflectsRestartLoop(t *testing.T) {
	store := timeseries.NewMemoryStore(0)
	mgr := NewManager(store, time.Hour, time.Hour)
	base := time.Unix(1700000000, 0)

	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * 10 * time.Second)
		_ = mgr.HandleEvent(context.Background(), &events.Event{
			Kind: events.KindLifecycle,
			Payload: events.LifecyclePayload{
				ContainerID: "c1", Action: events.LifecycleRestart, Timestamp: ts,
			},
		})
	}

	samples := mgr.Emit("c1", "", base.Add(time.Minute))
	var loopValue, totalValue float64
	for _, s := range samples {
		switch s.Name {
		case "container_is_restart_loop":
			loopValue = s.Value
		case "container_restarts_total":
			totalValue = s.Value
		}
	}
	assert.Equal(t, 1.0, loopValue)
	assert.Equal(t, 5.0, totalValue)
}
