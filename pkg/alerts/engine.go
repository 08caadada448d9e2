package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/timeseries"

	"github.com/google/uuid"
)

// NotifyKind distinguishes a fired alert from a resolved one, so a
// Notifier can pick templates/routing accordingly.
type NotifyKind int

const (
	NotifyFired NotifyKind = iota
	NotifyResolved
)

// Notifier is the boundary alerts.Engine hands alerts across to
// pkg/notify, kept as a narrow interface here so this package never
// imports the notification channel implementations.
type Notifier interface {
	Notify(ctx context.Context, alert *Alert, kind NotifyKind)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, *Alert, NotifyKind) {}

// Engine evaluates AlertRules on a cadence against recent samples and
// owns the active-alert map and bounded resolved-history buffer.
type Engine struct {
	store        timeseries.Store
	notifier     Notifier
	sampleWindow time.Duration
	maxAlerts    int
	now          func() time.Time

	mu              sync.Mutex
	rules           map[string]*AlertRule
	active          map[string]*Alert // keyed by rule id
	resolvedHistory []*Alert
	silenced        map[string]time.Time // alert id -> unsilence time (zero = indefinite)
}

// NewEngine builds an Engine. maxAlerts bounds the resolved-history
// buffer (oldest evicted); sampleWindow is how far back EvaluateTick
// looks when it has to query the store itself.
func NewEngine(store timeseries.Store, notifier Notifier, sampleWindow time.Duration, maxAlerts int) *Engine {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Engine{
		store:        store,
		notifier:     notifier,
		sampleWindow: sampleWindow,
		maxAlerts:    maxAlerts,
		now:          time.Now,
		rules:        make(map[string]*AlertRule),
		active:       make(map[string]*Alert),
		silenced:     make(map[string]time.Time),
	}
}

func (e *Engine) AddRule(rule *AlertRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[rule.ID] = rule
}

func (e *Engine) RemoveRule(ruleID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rules, ruleID)
	delete(e.active, ruleID)
}

func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, a)
	}
	return out
}

func (e *Engine) ResolvedHistory() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Alert, len(e.resolvedHistory))
	copy(out, e.resolvedHistory)
	return out
}

// Acknowledge marks an active alert Acknowledged; it remains active.
func (e *Engine) Acknowledge(alertID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range e.active {
		if a.AlertID == alertID && a.Active() {
			now := e.now()
			a.Status = StatusAcknowledged
			a.AcknowledgedAt = &now
			a.UpdatedAt = now
			return true
		}
	}
	return false
}

// Silence short-circuits routing for alertID. A zero duration silences
// indefinitely; otherwise a timer returns the alert to Firing once the
// deadline has passed, unless it has been silenced again since.
func (e *Engine) Silence(alertID string, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var until time.Time
	if duration > 0 {
		until = e.now().Add(duration)
	}
	e.silenced[alertID] = until
	for _, a := range e.active {
		if a.AlertID == alertID {
			a.Status = StatusSilenced
			a.UpdatedAt = e.now()
		}
	}
	if duration > 0 {
		time.AfterFunc(duration, func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if e.isSilenced(alertID) {
				return
			}
			for _, a := range e.active {
				if a.AlertID == alertID && a.Status == StatusSilenced {
					a.Status = StatusFiring
					a.UpdatedAt = e.now()
				}
			}
		})
	}
}

func (e *Engine) isSilenced(alertID string) bool {
	until, ok := e.silenced[alertID]
	if !ok {
		return false
	}
	if until.IsZero() {
		return true
	}
	if e.now().After(until) {
		delete(e.silenced, alertID)
		return false
	}
	return true
}

// EvaluateTick runs one evaluation cycle at time now. If samples is
// non-nil it is used directly (the deterministic injection path tests
// rely on); otherwise recent samples are pulled from the store over
// sampleWindow.
func (e *Engine) EvaluateTick(ctx context.Context, now time.Time, samples []timeseries.MetricSample) ([]*Alert, error) {
	e.mu.Lock()
	rules := make([]*AlertRule, 0, len(e.rules))
	for _, r := range e.rules {
		rules = append(rules, r)
	}
	e.mu.Unlock()

	var newAlerts []*Alert
	for _, rule := range rules {
		if rule.Disabled {
			continue
		}
		ruleSamples := samples
		if ruleSamples == nil {
			var err error
			ruleSamples, err = e.samplesFor(ctx, rule, now)
			if err != nil {
				log.WithComponent("alerts").Warn().Err(err).Str("rule_id", rule.ID).Msg("failed to load samples for rule evaluation")
				continue
			}
		}
		if alert := e.evaluateRule(ctx, rule, ruleSamples, now); alert != nil {
			newAlerts = append(newAlerts, alert)
		}
	}
	return newAlerts, nil
}

func (e *Engine) samplesFor(ctx context.Context, rule *AlertRule, now time.Time) ([]timeseries.MetricSample, error) {
	start := now.Add(-e.sampleWindow)
	var all []timeseries.MetricSample
	for _, cond := range rule.Conditions {
		samples, err := e.store.Query(ctx, timeseries.Query{Name: cond.MetricName, Start: &start, End: &now})
		if err != nil {
			return nil, err
		}
		all = append(all, samples...)
	}
	return all, nil
}

// evaluateRule applies the Pending/Firing/Resolved transition table to
// a single rule's evaluation at time now, returning a newly created
// (first-time-firing) alert, or nil if nothing new was created.
func (e *Engine) evaluateRule(ctx context.Context, rule *AlertRule, samples []timeseries.MetricSample, now time.Time) *Alert {
	met, triggering := rule.evaluate(samples)

	rule.state.mu.Lock()
	defer rule.state.mu.Unlock()

	if met {
		return e.handleConditionMet(ctx, rule, triggering, now)
	}
	e.handleConditionCleared(ctx, rule, now)
	return nil
}

func (e *Engine) handleConditionMet(ctx context.Context, rule *AlertRule, triggering *timeseries.MetricSample, now time.Time) *Alert {
	st := &rule.state
	st.conditionClearedAt = time.Time{}

	switch st.status {
	case "", StatusResolved:
		st.status = StatusPending
		st.firstDetected = now
		fallthrough

	case StatusPending:
		forDuration := time.Duration(0)
		if rule.ForDuration != nil {
			forDuration = *rule.ForDuration
		}
		if now.Sub(st.firstDetected) < forDuration {
			return nil
		}
		if e.throttled(rule, now) {
			return nil
		}
		st.status = StatusFiring
		st.lastFired = now
		st.firingCount++
		return e.fire(ctx, rule, triggering, now)

	case StatusFiring:
		if e.throttled(rule, now) {
			e.touchActive(rule, now)
			return nil
		}
		st.lastFired = now
		st.firingCount++
		return e.fire(ctx, rule, triggering, now)

	default: // Acknowledged, Silenced: condition holding doesn't change status
		e.touchActive(rule, now)
		return nil
	}
}

func (e *Engine) throttled(rule *AlertRule, now time.Time) bool {
	st := &rule.state
	if rule.ThrottleDuration == nil || st.lastFired.IsZero() {
		return false
	}
	return now.Sub(st.lastFired) < *rule.ThrottleDuration
}

func (e *Engine) handleConditionCleared(ctx context.Context, rule *AlertRule, now time.Time) {
	st := &rule.state
	switch st.status {
	case StatusPending:
		st.status = ""
		st.firstDetected = time.Time{}

	case StatusFiring, StatusAcknowledged:
		if st.conditionClearedAt.IsZero() {
			st.conditionClearedAt = now
		}
		if !rule.AutoResolve {
			return
		}
		if rule.ResolveTimeout != nil && now.Sub(st.conditionClearedAt) < *rule.ResolveTimeout {
			return
		}
		e.resolve(ctx, rule, now)
	}
}

func (e *Engine) fire(ctx context.Context, rule *AlertRule, triggering *timeseries.MetricSample, now time.Time) *Alert {
	e.mu.Lock()
	existing, ok := e.active[rule.ID]
	e.mu.Unlock()

	if ok {
		existing.UpdatedAt = now
		existing.TriggeringMetric = triggering
		e.notifier.Notify(ctx, existing, NotifyFired)
		return nil
	}

	fired := now
	alert := &Alert{
		AlertID:          uuid.NewString(),
		RuleID:           rule.ID,
		RuleName:         rule.Name,
		Severity:         rule.Severity,
		Status:           StatusFiring,
		Message:          fmt.Sprintf("rule %q is firing", rule.Name),
		CreatedAt:        now,
		UpdatedAt:        now,
		FiredAt:          &fired,
		Labels:           rule.Labels,
		Annotations:      rule.Annotations,
		TriggeringMetric: triggering,
	}
	e.mu.Lock()
	e.active[rule.ID] = alert
	e.mu.Unlock()

	e.notifier.Notify(ctx, alert, NotifyFired)
	return alert
}

func (e *Engine) touchActive(rule *AlertRule, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.active[rule.ID]; ok {
		a.UpdatedAt = now
	}
}

func (e *Engine) resolve(ctx context.Context, rule *AlertRule, now time.Time) {
	e.mu.Lock()
	alert, ok := e.active[rule.ID]
	if !ok {
		e.mu.Unlock()
		rule.state.status = StatusResolved
		rule.state.firstDetected = time.Time{}
		rule.state.conditionClearedAt = time.Time{}
		return
	}
	delete(e.active, rule.ID)
	resolvedAt := now
	alert.Status = StatusResolved
	alert.ResolvedAt = &resolvedAt
	alert.UpdatedAt = now
	e.resolvedHistory = append(e.resolvedHistory, alert)
	if e.maxAlerts > 0 && len(e.resolvedHistory) > e.maxAlerts {
		e.resolvedHistory = e.resolvedHistory[len(e.resolvedHistory)-e.maxAlerts:]
	}
	e.mu.Unlock()

	rule.state.status = StatusResolved
	rule.state.firstDetected = time.Time{}
	rule.state.conditionClearedAt = time.Time{}

	e.notifier.Notify(ctx, alert, NotifyResolved)
}
