package lifecycle

import (
	"sync"
	"time"

	"github.com/cuemby/beacon/pkg/events"
)

const (
	restartLoopMinCount        = 4
	restartLoopMaxAvgInterval  = 60 * time.Second
	restartSeverityCriticalAt  = 6
)

// RestartSummary is a point-in-time read of one container's restart
// behavior.
type RestartSummary struct {
	WindowedCount  int
	TotalRestarts  int
	Intervals      []time.Duration
	IsRestartLoop  bool
	Severity       events.Severity // zero value when not looping
	RatePerHour    float64
}

type restartState struct {
	timestamps []time.Time // within the rolling window, ascending
	total      int         // lifetime count, never pruned
}

// RestartTracker keeps a rolling window of restart timestamps per
// container and derives loop detection and severity from it.
type RestartTracker struct {
	window time.Duration
	now    func() time.Time

	mu         sync.Mutex
	containers map[string]*restartState
}

func NewRestartTracker(window time.Duration) *RestartTracker {
	if window <= 0 {
		window = time.Hour
	}
	return &RestartTracker{
		window:     window,
		now:        time.Now,
		containers: make(map[string]*restartState),
	}
}

// RecordRestart appends a restart observation at time at.
func (t *RestartTracker) RecordRestart(containerID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.stateFor(containerID)
	st.timestamps = append(st.timestamps, at)
	st.total++
}

func (t *RestartTracker) stateFor(containerID string) *restartState {
	st, ok := t.containers[containerID]
	if !ok {
		st = &restartState{}
		t.containers[containerID] = st
	}
	return st
}

// Summary prunes timestamps older than the rolling window (relative
// to now) and returns the container's current restart behavior.
func (t *RestartTracker) Summary(containerID string, now time.Time) RestartSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.containers[containerID]
	if !ok {
		return RestartSummary{}
	}

	cutoff := now.Add(-t.window)
	kept := st.timestamps[:0:0]
	for _, ts := range st.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	st.timestamps = kept

	intervals := make([]time.Duration, 0, maxInt(len(kept)-1, 0))
	for i := 1; i < len(kept); i++ {
		intervals = append(intervals, kept[i].Sub(kept[i-1]))
	}

	isLoop := len(kept) >= restartLoopMinCount && averageBelow(intervals, restartLoopMaxAvgInterval)

	var severity events.Severity
	if isLoop {
		severity = events.SeverityMedium
		if len(kept) >= restartSeverityCriticalAt {
			severity = events.SeverityCritical
		}
	}

	return RestartSummary{
		WindowedCount: len(kept),
		TotalRestarts: st.total,
		Intervals:     intervals,
		IsRestartLoop: isLoop,
		Severity:      severity,
		RatePerHour:   float64(len(kept)) / t.window.Hours(),
	}
}

func averageBelow(intervals []time.Duration, threshold time.Duration) bool {
	if len(intervals) == 0 {
		return false
	}
	var total time.Duration
	for _, d := range intervals {
		total += d
	}
	return total/time.Duration(len(intervals)) < threshold
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
