package events

import "time"

// Kind enumerates the tagged event variants beacon carries on its bus.
type Kind string

const (
	KindFile             Kind = "file"
	KindMetricThreshold  Kind = "metric_threshold"
	KindSystem           Kind = "system"
	KindGit              Kind = "git"
	KindBuild            Kind = "build"
	KindDependency       Kind = "dependency"
	KindLifecycle        Kind = "lifecycle"
	// KindLogPattern is a private extension (not part of the core
	// enumerated contract guarantees) for matched log lines surfaced
	// by a log-watching collaborator.
	KindLogPattern Kind = "log_pattern"
)

// Severity ranks an event's urgency.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Event is the common envelope for every event kind. Payload holds
// one of the kind-specific payload structs in this package; Kind
// indicates which one.
type Event struct {
	ID            string
	Timestamp     time.Time
	Source        string
	Kind          Kind
	Severity      Severity
	Labels        map[string]string
	Payload       any
	CorrelationID string
}

// Label returns the value of a labels key and whether it was present.
func (e *Event) Label(key string) (string, bool) {
	if e.Labels == nil {
		return "", false
	}
	v, ok := e.Labels[key]
	return v, ok
}
