package retention

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// ApplyResult is the outcome of one sweep, returned by Apply and
// accumulated across the metrics it touched.
type ApplyResult struct {
	DeletedCount int
	ByMetric     map[string]int
	ByRule       map[string]int
	Errors       []string
}

// RetentionManager holds the rule set and, optionally, a cron-driven
// background sweep loop over a timeseries.Store.
type RetentionManager struct {
	store           timeseries.Store
	defaultRetain   time.Duration
	defaultMinKeep  int
	now             func() time.Time

	mu    sync.RWMutex
	rules []*RetentionRule

	cronMu sync.Mutex
	cronID *cron.Cron
	entry  cron.EntryID
}

// NewRetentionManager builds a manager with the given default
// retention (applied when no rule matches a metric).
func NewRetentionManager(store timeseries.Store, defaultRetention time.Duration) *RetentionManager {
	return &RetentionManager{
		store:         store,
		defaultRetain: defaultRetention,
		now:           time.Now,
	}
}

// AddRule compiles and appends rule, re-sorting the rule set by
// priority descending (stable, so equal-priority rules keep insertion
// order as an additional tiebreak).
func (m *RetentionManager) AddRule(rule RetentionRule) error {
	if err := rule.compile(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, &rule)
	sort.SliceStable(m.rules, func(i, j int) bool { return m.rules[i].Priority > m.rules[j].Priority })
	return nil
}

// RemoveRule drops every rule whose pattern exactly matches pattern.
func (m *RetentionManager) RemoveRule(pattern string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := make([]*RetentionRule, 0, len(m.rules))
	for _, r := range m.rules {
		if r.Pattern != pattern {
			kept = append(kept, r)
		}
	}
	m.rules = kept
}

// RetentionFor resolves the retention duration and min-points floor
// for a (name, labels) series: the first (highest-priority) matching
// rule wins; absent a match, the manager's configured default applies.
func (m *RetentionManager) RetentionFor(name string, labels map[string]string) (time.Duration, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.matches(name, labels) {
			return r.Retention, r.MinPointsToKeep
		}
	}
	return m.defaultRetain, m.defaultMinKeep
}

func (m *RetentionManager) ruleFor(name string, labels map[string]string) *RetentionRule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.matches(name, labels) {
			return r
		}
	}
	return nil
}

// Apply sweeps every known metric name and deletes samples older than
// that series' resolved retention, preserving min_points_to_keep. When
// dryRun is true no deletes are issued; DeletedCount still reports
// what would have been removed.
func (m *RetentionManager) Apply(ctx context.Context, dryRun bool) (ApplyResult, error) {
	result := ApplyResult{ByMetric: map[string]int{}, ByRule: map[string]int{}}

	names, err := m.store.MetricNames(ctx)
	if err != nil {
		return result, errs.New(errs.Dependency, "retention.apply", err)
	}

	now := m.now()
	for _, name := range names {
		seriesLabels, err := m.store.SeriesLabels(ctx, name)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if len(seriesLabels) == 0 {
			seriesLabels = []map[string]string{nil}
		}

		for _, labels := range seriesLabels {
			rule := m.ruleFor(name, labels)
			retention := m.defaultRetain
			minKeep := m.defaultMinKeep
			ruleLabel := "default"
			if rule != nil {
				retention = rule.Retention
				minKeep = rule.MinPointsToKeep
				ruleLabel = rule.Pattern
			}
			cutoff := now.Add(-retention)

			var deleted int
			if dryRun {
				deleted, err = m.countExpired(ctx, name, labels, cutoff, minKeep)
			} else {
				deleted, err = m.store.Delete(ctx, name, labels, cutoff, minKeep)
			}
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
				continue
			}
			if deleted > 0 {
				result.DeletedCount += deleted
				result.ByMetric[name] += deleted
				result.ByRule[ruleLabel] += deleted
			}
		}
	}
	return result, nil
}

func (m *RetentionManager) countExpired(ctx context.Context, name string, labels map[string]string, cutoff time.Time, minKeep int) (int, error) {
	samples, err := m.store.Query(ctx, timeseries.Query{Name: name, Labels: labels})
	if err != nil {
		return 0, err
	}
	keepFromEnd := minKeep
	if keepFromEnd < 0 {
		keepFromEnd = 0
	}
	cut := len(samples) - keepFromEnd
	n := 0
	for i, s := range samples {
		if i < cut && s.Timestamp.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

// StartAuto runs Apply(dry_run=false) every period in the background
// via a cron `@every` schedule. Errors from a sweep are logged, never
// propagated — the loop must survive a bad sweep.
func (m *RetentionManager) StartAuto(period time.Duration) error {
	m.cronMu.Lock()
	defer m.cronMu.Unlock()
	if m.cronID != nil {
		return nil
	}

	c := cron.New()
	id, err := c.AddFunc(fmt.Sprintf("@every %s", period), func() {
		if _, err := m.Apply(context.Background(), false); err != nil {
			log.WithComponent("retention").Error().Err(err).Msg("automatic retention sweep failed")
		}
	})
	if err != nil {
		return errs.New(errs.Configuration, "retention.start_auto", err)
	}
	c.Start()
	m.cronID = c
	m.entry = id
	return nil
}

// StopAuto stops the background sweep loop, if running.
func (m *RetentionManager) StopAuto() {
	m.cronMu.Lock()
	defer m.cronMu.Unlock()
	if m.cronID == nil {
		return
	}
	m.cronID.Stop()
	m.cronID = nil
}
