package alerts

import (
	"time"

	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// Status is an alert's position in the Pending → Firing →
// Resolved/Acknowledged/Silenced state machine.
type Status string

const (
	StatusPending      Status = "pending"
	StatusFiring       Status = "firing"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusSilenced     Status = "silenced"
	StatusSuppressed   Status = "suppressed"
)

// NotificationRecord is one attempted delivery of an alert to a
// channel, appended to Alert.NotificationHistory in attempt order.
type NotificationRecord struct {
	Channel   string
	Success   bool
	Timestamp time.Time
}

// Alert is one firing/pending/resolved instance of an AlertRule.
type Alert struct {
	AlertID  string
	RuleID   string
	RuleName string
	Severity events.Severity
	Status   Status
	Message  string

	CreatedAt      time.Time
	UpdatedAt      time.Time
	FiredAt        *time.Time
	AcknowledgedAt *time.Time
	ResolvedAt     *time.Time

	Labels      map[string]string
	Annotations map[string]string

	TriggeringMetric *timeseries.MetricSample

	NotificationHistory []NotificationRecord
	Notes               []string
}

func (a *Alert) recordNotification(channel string, success bool, at time.Time) {
	a.NotificationHistory = append(a.NotificationHistory, NotificationRecord{
		Channel: channel, Success: success, Timestamp: at,
	})
}

// RecordNotification appends a delivery attempt to the alert's
// notification history. Exported so pkg/notify's Router, which
// implements Notifier on the other side of this package's boundary,
// can record per-channel outcomes without this package depending on
// notify's channel types.
func (a *Alert) RecordNotification(channel string, success bool, at time.Time) {
	a.recordNotification(channel, success, at)
}

// Active reports whether the alert still counts as an open
// incident — Firing, Pending, or Acknowledged.
func (a *Alert) Active() bool {
	switch a.Status {
	case StatusFiring, StatusPending, StatusAcknowledged:
		return true
	default:
		return false
	}
}
