package retention

import (
	"time"

	"github.com/gobwas/glob"

	"github.com/cuemby/beacon/pkg/errs"
)

// RetentionRule declares how long a class of series is kept. Pattern
// is a glob over the metric name; LabelFilters, if set, must be a
// subset of a sample's labels for the rule to match. Priority breaks
// ties when more than one rule's pattern matches — higher wins.
type RetentionRule struct {
	Pattern         string
	LabelFilters    map[string]string
	Retention       time.Duration
	Priority        int
	MinPointsToKeep int

	compiled glob.Glob
}

func (r *RetentionRule) compile() error {
	g, err := glob.Compile(r.Pattern)
	if err != nil {
		return errs.New(errs.Configuration, "retention.add_rule", err)
	}
	r.compiled = g
	return nil
}

func (r *RetentionRule) matches(name string, labels map[string]string) bool {
	if r.compiled == nil {
		return false
	}
	if !r.compiled.Match(name) {
		return false
	}
	for k, v := range r.LabelFilters {
		if labels[k] != v {
			return false
		}
	}
	return true
}
