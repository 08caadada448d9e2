package notify

import (
	"github.com/gobwas/glob"

	"github.com/cuemby/beacon/pkg/alerts"
	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/events"
)

// RoutingRule selects a set of channels (and optionally a template)
// for alerts matching its predicates. An empty Severities/LabelEquals/
// RuleNameGlob means "don't filter on this dimension".
type RoutingRule struct {
	Severities  []events.Severity
	LabelEquals map[string]string
	RuleNameGlob string
	Channels    []string
	Template    string

	compiled glob.Glob
}

func (r *RoutingRule) compile() error {
	if r.RuleNameGlob == "" {
		return nil
	}
	g, err := glob.Compile(r.RuleNameGlob)
	if err != nil {
		return errs.New(errs.Configuration, "notify.routing_rule.compile", err)
	}
	r.compiled = g
	return nil
}

func (r *RoutingRule) matches(alert *alerts.Alert) bool {
	if len(r.Severities) > 0 && !severityIn(alert.Severity, r.Severities) {
		return false
	}
	for k, v := range r.LabelEquals {
		if alert.Labels[k] != v {
			return false
		}
	}
	if r.compiled != nil && !r.compiled.Match(alert.RuleName) {
		return false
	}
	return true
}

func severityIn(s events.Severity, set []events.Severity) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}
