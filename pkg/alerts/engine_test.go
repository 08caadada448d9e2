package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/timeseries"
)

type recordingNotifier struct {
	mu      sync.Mutex
	fired   []*Alert
	resolved []*Alert
}

func (r *recordingNotifier) Notify(_ context.Context, alert *Alert, kind NotifyKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case NotifyFired:
		r.fired = append(r.fired, alert)
	case NotifyResolved:
		r.resolved = append(r.resolved, alert)
	}
}

func tick(name string, value float64, ts time.Time) []timeseries.MetricSample {
	return []timeseries.MetricSample{{Name: name, Value: value, Timestamp: ts}}
}

// TestAlertLifecycleMatchesLiteralScenario mirrors the spec's scenario
// exactly: cpu_usage_percent > 80, for_duration=2m, throttle=10m,
// auto_resolve=true.
func TestAlertLifecycleMatchesLiteralScenario(t *testing.T) {
	store := timeseries.NewMemoryStore(0)
	notifier := &recordingNotifier{}
	engine := NewEngine(store, notifier, 10*time.Minute, 100)

	forDuration := 2 * time.Minute
	throttle := 10 * time.Minute
	engine.AddRule(&AlertRule{
		ID:   "high-cpu",
		Name: "high cpu usage",
		Conditions: []AlertCondition{
			{MetricName: "cpu_usage_percent", Comparator: events.ComparatorGt, Threshold: 80},
		},
		Logic:            LogicAnd,
		ForDuration:      &forDuration,
		ThrottleDuration: &throttle,
		AutoResolve:      true,
	})

	base := time.Unix(1700000000, 0)

	// tick 1: Pending, no alert
	newAlerts, err := engine.EvaluateTick(context.Background(), base, tick("cpu_usage_percent", 85, base))
	require.NoError(t, err)
	assert.Empty(t, newAlerts)
	assert.Empty(t, engine.Active())

	// tick 2: still Pending, no alert
	newAlerts, err = engine.EvaluateTick(context.Background(), base.Add(time.Minute), tick("cpu_usage_percent", 85, base.Add(time.Minute)))
	require.NoError(t, err)
	assert.Empty(t, newAlerts)
	assert.Empty(t, engine.Active())

	// tick 3: for_duration elapsed -> Firing, one new alert
	newAlerts, err = engine.EvaluateTick(context.Background(), base.Add(2*time.Minute), tick("cpu_usage_percent", 85, base.Add(2*time.Minute)))
	require.NoError(t, err)
	require.Len(t, newAlerts, 1)
	require.Len(t, engine.Active(), 1)
	assert.Equal(t, StatusFiring, engine.Active()[0].Status)
	assert.Len(t, notifier.fired, 1)

	// tick 4: throttled, no new alert
	newAlerts, err = engine.EvaluateTick(context.Background(), base.Add(3*time.Minute), tick("cpu_usage_percent", 85, base.Add(3*time.Minute)))
	require.NoError(t, err)
	assert.Empty(t, newAlerts)
	assert.Len(t, notifier.fired, 1) // no re-notification while throttled
	require.Len(t, engine.Active(), 1)

	// tick 5: condition clears -> resolves exactly once, resolution notified
	newAlerts, err = engine.EvaluateTick(context.Background(), base.Add(4*time.Minute), tick("cpu_usage_percent", 70, base.Add(4*time.Minute)))
	require.NoError(t, err)
	assert.Empty(t, newAlerts)
	assert.Empty(t, engine.Active())
	require.Len(t, notifier.resolved, 1)
	assert.Equal(t, StatusResolved, notifier.resolved[0].Status)
}

func TestAlertConditionClearedBeforeForDurationNeverFires(t *testing.T) {
	store := timeseries.NewMemoryStore(0)
	notifier := &recordingNotifier{}
	engine := NewEngine(store, notifier, 10*time.Minute, 100)
	forDuration := 2 * time.Minute
	engine.AddRule(&AlertRule{
		ID:   "r1",
		Conditions: []AlertCondition{
			{MetricName: "m", Comparator: events.ComparatorGt, Threshold: 10},
		},
		Logic:       LogicAnd,
		ForDuration: &forDuration,
	})

	base := time.Unix(1700000000, 0)
	_, err := engine.EvaluateTick(context.Background(), base, tick("m", 15, base))
	require.NoError(t, err)
	_, err = engine.EvaluateTick(context.Background(), base.Add(time.Minute), tick("m", 5, base.Add(time.Minute)))
	require.NoError(t, err)
	assert.Empty(t, notifier.fired)

	_, err = engine.EvaluateTick(context.Background(), base.Add(2*time.Minute), tick("m", 15, base.Add(2*time.Minute)))
	require.NoError(t, err)
	assert.Empty(t, notifier.fired) // firstDetected reset; only 0 elapsed this time
}

func TestAlertOrLogicFiresOnEitherCondition(t *testing.T) {
	store := timeseries.NewMemoryStore(0)
	notifier := &recordingNotifier{}
	engine := NewEngine(store, notifier, 10*time.Minute, 100)
	engine.AddRule(&AlertRule{
		ID: "r1",
		Conditions: []AlertCondition{
			{MetricName: "a", Comparator: events.ComparatorGt, Threshold: 10},
			{MetricName: "b", Comparator: events.ComparatorGt, Threshold: 10},
		},
		Logic: LogicOr,
	})

	base := time.Unix(1700000000, 0)
	samples := []timeseries.MetricSample{
		{Name: "a", Value: 1, Timestamp: base},
		{Name: "b", Value: 99, Timestamp: base},
	}
	newAlerts, err := engine.EvaluateTick(context.Background(), base, samples)
	require.NoError(t, err)
	require.Len(t, newAlerts, 1)
}

func TestAlertAcknowledgeKeepsAlertActive(t *testing.T) {
	store := timeseries.NewMemoryStore(0)
	notifier := &recordingNotifier{}
	engine := NewEngine(store, notifier, 10*time.Minute, 100)
	engine.AddRule(&AlertRule{
		ID:         "r1",
		Conditions: []AlertCondition{{MetricName: "m", Comparator: events.ComparatorGt, Threshold: 10}},
		Logic:      LogicAnd,
	})

	base := time.Unix(1700000000, 0)
	newAlerts, err := engine.EvaluateTick(context.Background(), base, tick("m", 20, base))
	require.NoError(t, err)
	require.Len(t, newAlerts, 1)

	ok := engine.Acknowledge(newAlerts[0].AlertID)
	assert.True(t, ok)
	require.Len(t, engine.Active(), 1)
	assert.Equal(t, StatusAcknowledged, engine.Active()[0].Status)
}

func TestAlertSilenceShortCircuitsStatus(t *testing.T) {
	store := timeseries.NewMemoryStore(0)
	notifier := &recordingNotifier{}
	engine := NewEngine(store, notifier, 10*time.Minute, 100)
	engine.AddRule(&AlertRule{
		ID:         "r1",
		Conditions: []AlertCondition{{MetricName: "m", Comparator: events.ComparatorGt, Threshold: 10}},
		Logic:      LogicAnd,
	})

	base := time.Unix(1700000000, 0)
	newAlerts, err := engine.EvaluateTick(context.Background(), base, tick("m", 20, base))
	require.NoError(t, err)
	require.Len(t, newAlerts, 1)

	engine.Silence(newAlerts[0].AlertID, 0)
	assert.Equal(t, StatusSilenced, engine.Active()[0].Status)
}

func TestAlertResolvedHistoryBounded(t *testing.T) {
	store := timeseries.NewMemoryStore(0)
	notifier := &recordingNotifier{}
	engine := NewEngine(store, notifier, 10*time.Minute, 2)
	engine.AddRule(&AlertRule{
		ID:          "r1",
		Conditions:  []AlertCondition{{MetricName: "m", Comparator: events.ComparatorGt, Threshold: 10}},
		Logic:       LogicAnd,
		AutoResolve: true,
	})

	base := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		offset := time.Duration(i*2) * time.Minute
		_, err := engine.EvaluateTick(context.Background(), base.Add(offset), tick("m", 20, base.Add(offset)))
		require.NoError(t, err)
		_, err = engine.EvaluateTick(context.Background(), base.Add(offset+time.Minute), tick("m", 5, base.Add(offset+time.Minute)))
		require.NoError(t, err)
	}
	assert.Len(t, engine.ResolvedHistory(), 2)
}
