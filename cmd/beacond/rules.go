package main

import (
	"time"

	"github.com/cuemby/beacon/pkg/alerts"
	"github.com/cuemby/beacon/pkg/events"
)

// defaultAlertRules returns the built-in rule set beacond evaluates
// when no declarative alert-rule source is configured. spec.md leaves
// alert rule authoring out of the config schema (§6 lists no `alerts:
// rules:` key), so these mirror the conditions the original Python
// alert_generator.py shipped as defaults: sustained high CPU, memory
// pressure, and a container stuck in a restart loop.
func defaultAlertRules() []*alerts.AlertRule {
	forDuration := 2 * time.Minute
	throttle := 15 * time.Minute
	resolveTimeout := 5 * time.Minute

	return []*alerts.AlertRule{
		{
			ID:   "high-cpu-usage",
			Name: "high-cpu-usage",
			Conditions: []alerts.AlertCondition{
				{MetricName: "cpu_usage_percent", Comparator: events.ComparatorGt, Threshold: 90},
			},
			Logic:            alerts.LogicAnd,
			Severity:         events.SeverityHigh,
			ForDuration:      &forDuration,
			ThrottleDuration: &throttle,
			AutoResolve:      true,
			ResolveTimeout:   &resolveTimeout,
		},
		{
			ID:   "high-memory-usage",
			Name: "high-memory-usage",
			Conditions: []alerts.AlertCondition{
				{MetricName: "memory_usage_percent", Comparator: events.ComparatorGt, Threshold: 90},
			},
			Logic:            alerts.LogicAnd,
			Severity:         events.SeverityHigh,
			ForDuration:      &forDuration,
			ThrottleDuration: &throttle,
			AutoResolve:      true,
			ResolveTimeout:   &resolveTimeout,
		},
		{
			ID:   "container-restart-loop",
			Name: "container-restart-loop",
			Conditions: []alerts.AlertCondition{
				{MetricName: "container_is_restart_loop", Comparator: events.ComparatorGte, Threshold: 1},
			},
			Logic:            alerts.LogicAnd,
			Severity:         events.SeverityCritical,
			ThrottleDuration: &throttle,
			AutoResolve:      true,
			ResolveTimeout:   &resolveTimeout,
		},
	}
}
