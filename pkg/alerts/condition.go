package alerts

import (
	"regexp"

	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// AlertCondition is one comparison within an AlertRule.
type AlertCondition struct {
	MetricName     string
	Comparator     events.Comparator
	Threshold      float64
	RegexPattern   string // used instead of Threshold for string-valued metrics
	LabelFilters   map[string]string
	EvaluationWindowSamples int // 0 means "use the latest sample only"
	MinSampleCount int

	compiledRegex *regexp.Regexp
}

// matches reports whether a sample's labels satisfy the condition's
// label filters (a subset match, like retention rule label filters).
func (c *AlertCondition) matches(labels map[string]string) bool {
	for k, v := range c.LabelFilters {
		if labels[k] != v {
			return false
		}
	}
	return true
}

// relevant filters samples down to this condition's metric and labels.
func (c *AlertCondition) relevant(samples []timeseries.MetricSample) []timeseries.MetricSample {
	var out []timeseries.MetricSample
	for _, s := range samples {
		if s.Name != c.MetricName {
			continue
		}
		if !c.matches(s.Labels) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Evaluate reports whether the condition currently holds against the
// given (already time-windowed) sample list, and the sample that
// tripped it, if any.
func (c *AlertCondition) Evaluate(samples []timeseries.MetricSample) (bool, *timeseries.MetricSample) {
	relevant := c.relevant(samples)
	minCount := c.MinSampleCount
	if minCount <= 0 {
		minCount = 1
	}
	if len(relevant) < minCount {
		return false, nil
	}

	window := relevant
	if c.EvaluationWindowSamples > 0 && len(window) > c.EvaluationWindowSamples {
		window = window[len(window)-c.EvaluationWindowSamples:]
	}

	latest := window[len(window)-1]
	if latest.IsString {
		return c.evaluateString(latest), &latest
	}
	return c.evaluateNumeric(latest.Value), &latest
}

func (c *AlertCondition) evaluateNumeric(value float64) bool {
	switch c.Comparator {
	case events.ComparatorGt:
		return value > c.Threshold
	case events.ComparatorGte:
		return value >= c.Threshold
	case events.ComparatorLt:
		return value < c.Threshold
	case events.ComparatorLte:
		return value <= c.Threshold
	case events.ComparatorEq:
		return value == c.Threshold
	case events.ComparatorNeq:
		return value != c.Threshold
	default:
		return false
	}
}

func (c *AlertCondition) evaluateString(sample timeseries.MetricSample) bool {
	if c.RegexPattern == "" {
		switch c.Comparator {
		case events.ComparatorEq:
			return sample.StringValue == ""
		default:
			return false
		}
	}
	if c.compiledRegex == nil {
		re, err := regexp.Compile(c.RegexPattern)
		if err != nil {
			return false
		}
		c.compiledRegex = re
	}
	matched := c.compiledRegex.MatchString(sample.StringValue)
	if c.Comparator == events.ComparatorNeq {
		return !matched
	}
	return matched
}
