package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMetricNameIdempotent(t *testing.T) {
	cases := []string{
		"", "req-total", "1abc", "__double", "trailing_", "a--b__c",
		"valid_name", "with:colon", "   spaces   ", "123",
	}
	for _, c := range cases {
		once := SanitizeMetricName(c)
		twice := SanitizeMetricName(once)
		assert.Equal(t, once, twice, "not idempotent for %q", c)
	}
}

func TestSanitizeLabelNameIdempotent(t *testing.T) {
	cases := []string{
		"", "svc-name", "1abc", "__double", "trailing_", "with:colon", "___",
	}
	for _, c := range cases {
		once := SanitizeLabelName(c)
		twice := SanitizeLabelName(once)
		assert.Equal(t, once, twice, "not idempotent for %q", c)
	}
}

func TestSanitizeMetricNameReplacesInvalidRuns(t *testing.T) {
	assert.Equal(t, "req_total", SanitizeMetricName("req-total"))
	assert.Equal(t, "with:colon", SanitizeMetricName("with:colon"))
	assert.Equal(t, "_123", SanitizeMetricName("123"))
	assert.Equal(t, "unnamed_metric", SanitizeMetricName(""))
	assert.Equal(t, "unnamed_metric", SanitizeMetricName("---"))
	assert.Equal(t, "a_b", SanitizeMetricName("a--b"))
	assert.Equal(t, "trailing", SanitizeMetricName("trailing_"))
}

func TestSanitizeLabelNameNeverStartsWithDoubleUnderscore(t *testing.T) {
	assert.Equal(t, "_double", SanitizeLabelName("__double"))
	assert.Equal(t, "label", SanitizeLabelName("___"))
	assert.Equal(t, "label", SanitizeLabelName(""))
}
