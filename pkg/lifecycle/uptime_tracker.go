package lifecycle

import (
	"sync"
	"time"
)

// Grade is a human-facing availability bucket derived from uptime
// percentage.
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeFair      Grade = "fair"
	GradePoor      Grade = "poor"
)

func gradeFor(uptimePercentage float64) Grade {
	switch {
	case uptimePercentage >= 99:
		return GradeExcellent
	case uptimePercentage >= 95:
		return GradeGood
	case uptimePercentage >= 90:
		return GradeFair
	default:
		return GradePoor
	}
}

type session struct {
	start time.Time
	end   *time.Time // nil while the session is still open (running)
}

type uptimeState struct {
	sessions []session
	running  bool
}

// UptimeSummary is a point-in-time read of one container's uptime and
// availability over the tracker's window.
type UptimeSummary struct {
	CurrentUptime          time.Duration
	TotalUptime            time.Duration
	SessionCount           int
	AverageSessionDuration time.Duration
	UptimePercentage       float64
	Grade                  Grade
}

// UptimeTracker keeps per-container (start, end?) sessions and derives
// uptime statistics over a bounded tracking window.
type UptimeTracker struct {
	trackingWindow time.Duration

	mu         sync.Mutex
	containers map[string]*uptimeState
}

func NewUptimeTracker(trackingWindow time.Duration) *UptimeTracker {
	if trackingWindow <= 0 {
		trackingWindow = 24 * time.Hour
	}
	return &UptimeTracker{
		trackingWindow: trackingWindow,
		containers:     make(map[string]*uptimeState),
	}
}

// RecordStart opens a new session. A session already open for this
// container is left alone — duplicate starts are deduplicated, not
// stacked.
func (u *UptimeTracker) RecordStart(containerID string, at time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	st := u.stateFor(containerID)
	if st.running {
		return
	}
	st.sessions = append(st.sessions, session{start: at})
	st.running = true
}

// RecordStop closes the currently open session, if any.
func (u *UptimeTracker) RecordStop(containerID string, at time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	st, ok := u.containers[containerID]
	if !ok || !st.running || len(st.sessions) == 0 {
		return
	}
	end := at
	st.sessions[len(st.sessions)-1].end = &end
	st.running = false
}

func (u *UptimeTracker) stateFor(containerID string) *uptimeState {
	st, ok := u.containers[containerID]
	if !ok {
		st = &uptimeState{}
		u.containers[containerID] = st
	}
	return st
}

// Summary computes uptime statistics over [now-trackingWindow, now].
// The uptime percentage is taken over that window, or over the time
// since the container's first recorded start when that is shorter.
func (u *UptimeTracker) Summary(containerID string, now time.Time) UptimeSummary {
	u.mu.Lock()
	defer u.mu.Unlock()

	st, ok := u.containers[containerID]
	if !ok {
		return UptimeSummary{Grade: GradePoor}
	}

	windowStart := now.Add(-u.trackingWindow)
	var totalUptime time.Duration
	var currentUptime time.Duration
	sessionCount := 0

	for _, s := range st.sessions {
		end := now
		if s.end != nil {
			end = *s.end
		}
		if end.Before(windowStart) {
			continue
		}
		start := s.start
		if start.Before(windowStart) {
			start = windowStart
		}
		if end.Before(start) {
			continue
		}
		totalUptime += end.Sub(start)
		sessionCount++
		if s.end == nil {
			currentUptime = now.Sub(s.start)
		}
	}

	var avgDuration time.Duration
	if sessionCount > 0 {
		avgDuration = totalUptime / time.Duration(sessionCount)
	}

	windowDuration := u.trackingWindow
	if len(st.sessions) > 0 {
		if observed := now.Sub(st.sessions[0].start); observed > 0 && observed < windowDuration {
			windowDuration = observed
		}
	}
	if windowDuration <= 0 {
		windowDuration = time.Second
	}
	pct := float64(totalUptime) / float64(windowDuration) * 100
	if pct > 100 {
		pct = 100
	}

	return UptimeSummary{
		CurrentUptime:          currentUptime,
		TotalUptime:            totalUptime,
		SessionCount:           sessionCount,
		AverageSessionDuration: avgDuration,
		UptimePercentage:       pct,
		Grade:                  gradeFor(pct),
	}
}
