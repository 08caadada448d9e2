package alerts

import (
	"sync"
	"time"

	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// Logic combines an AlertRule's conditions.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// AlertRule is a named set of conditions and the debounce/throttle/
// auto-resolve policy governing how they become Alerts.
type AlertRule struct {
	ID         string
	Name       string
	Conditions []AlertCondition
	Logic      Logic
	Severity   events.Severity
	Labels     map[string]string
	Annotations map[string]string

	ForDuration      *time.Duration
	ThrottleDuration *time.Duration
	AutoResolve      bool
	ResolveTimeout   *time.Duration
	Disabled         bool

	state ruleState
}

// ruleState is the rule's private evaluation timers, guarded
// independently of the engine's active-alert map so concurrent
// evaluation of distinct rules never contends on the same lock.
type ruleState struct {
	mu              sync.Mutex
	status          Status
	firstDetected   time.Time
	lastFired       time.Time
	conditionClearedAt time.Time
	firingCount     int
}

// evaluate combines each condition's result by the rule's Logic.
func (r *AlertRule) evaluate(samples []timeseries.MetricSample) (bool, *timeseries.MetricSample) {
	if len(r.Conditions) == 0 {
		return false, nil
	}
	var triggering *timeseries.MetricSample
	result := r.Logic == LogicAnd
	for i := range r.Conditions {
		met, sample := r.Conditions[i].Evaluate(samples)
		if sample != nil {
			triggering = sample
		}
		switch r.Logic {
		case LogicOr:
			result = result || met
		default:
			result = result && met
		}
	}
	return result, triggering
}
