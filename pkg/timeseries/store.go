package timeseries

import (
	"context"
	"time"
)

// Aggregation names a reduction applied to the samples in a range bucket.
type Aggregation int

const (
	AggAvg Aggregation = iota
	AggSum
	AggMin
	AggMax
	AggCount
	AggLast
)

// String-valued series only support Count and Last. The other
// aggregations return no error against non-numeric samples: they yield
// no value, so QueryRange leaves the bucket's Value nil and Aggregate
// returns 0.
func (a Aggregation) supportsStrings() bool {
	return a == AggCount || a == AggLast
}

// Query selects samples for Store.Query and Store.Aggregate: a metric
// name, a label subset, an optional time range and a result limit.
type Query struct {
	Name   string
	Labels map[string]string
	Start  *time.Time
	End    *time.Time
	Limit  int
}

// RangePoint is one bucket of a QueryRange result. Value is nil when no
// sample fell inside the bucket's [t, t+step) window.
type RangePoint struct {
	Timestamp time.Time
	Value     *float64
}

// Stats summarizes store occupancy.
type Stats struct {
	SeriesCount int
	SampleCount int64
}

// Store is the time-series persistence contract. Implementations are
// MemoryStore (bounded, volatile) and BoltStore (bbolt-backed, durable).
type Store interface {
	Store(ctx context.Context, samples []MetricSample) error
	Query(ctx context.Context, q Query) ([]MetricSample, error)
	QueryLatest(ctx context.Context, name string, labels map[string]string) (*MetricSample, bool, error)
	QueryRange(ctx context.Context, name string, labels map[string]string, start, end time.Time, step time.Duration, agg Aggregation) ([]RangePoint, error)
	MetricNames(ctx context.Context) ([]string, error)
	// SeriesLabels returns the distinct label sets of every series
	// registered under name, letting a caller (e.g. the retention
	// sweep) enumerate and operate on each series individually.
	SeriesLabels(ctx context.Context, name string) ([]map[string]string, error)
	LabelKeys(ctx context.Context, name string) ([]string, error)
	LabelValues(ctx context.Context, name, key string) ([]string, error)
	Aggregate(ctx context.Context, q Query, agg Aggregation) (float64, error)
	// Delete removes samples for name/labels older than `before`, but
	// always leaves at least minKeep of the series' most recent points
	// in place, even if every one of them is older than before. It
	// returns the number of samples actually removed.
	Delete(ctx context.Context, name string, labels map[string]string, before time.Time, minKeep int) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// rangeBucketCount returns the number of fixed-width buckets a
// QueryRange call must produce: ceil((end-start)/step)+1.
func rangeBucketCount(start, end time.Time, step time.Duration) int {
	if step <= 0 || !end.After(start) {
		return 1
	}
	span := end.Sub(start)
	n := int(span / step)
	if span%step != 0 {
		n++
	}
	return n + 1
}
