package timeseries

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memSeries struct {
	name   string
	labels map[string]string
	mu     sync.Mutex
	points []point // ascending by Timestamp
}

// MemoryStore is a lock-protected, in-process Store. Each series is
// bounded to maxPointsPerSeries; once full, the oldest point is
// evicted before the new one is appended.
type MemoryStore struct {
	maxPointsPerSeries int

	mu     sync.RWMutex
	series map[Fingerprint]*memSeries
}

// NewMemoryStore builds a MemoryStore bounding every series to
// maxPointsPerSeries points. A value <= 0 means unbounded.
func NewMemoryStore(maxPointsPerSeries int) *MemoryStore {
	return &MemoryStore{
		maxPointsPerSeries: maxPointsPerSeries,
		series:             make(map[Fingerprint]*memSeries),
	}
}

func (m *MemoryStore) seriesFor(name string, labels map[string]string, create bool) *memSeries {
	fp := NewFingerprint(name, labels)

	m.mu.RLock()
	s := m.series[fp]
	m.mu.RUnlock()
	if s != nil || !create {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s = m.series[fp]; s != nil {
		return s
	}
	s = &memSeries{name: name, labels: cloneLabels(labels)}
	m.series[fp] = s
	return s
}

func (m *MemoryStore) Store(_ context.Context, samples []MetricSample) error {
	for _, s := range samples {
		series := m.seriesFor(s.Name, s.Labels, true)
		series.mu.Lock()
		series.points = append(series.points, point{
			Value: s.Value, StringValue: s.StringValue, IsString: s.IsString, Timestamp: s.Timestamp,
		})
		// Stable: a freshly appended point sorts last among equal
		// timestamps, preserving insertion order instead of letting an
		// unstable sort reorder same-instant samples.
		sort.SliceStable(series.points, func(i, j int) bool { return series.points[i].Timestamp.Before(series.points[j].Timestamp) })
		if m.maxPointsPerSeries > 0 && len(series.points) > m.maxPointsPerSeries {
			series.points = series.points[len(series.points)-m.maxPointsPerSeries:]
		}
		series.mu.Unlock()
	}
	return nil
}

func (m *MemoryStore) Query(_ context.Context, q Query) ([]MetricSample, error) {
	var out []MetricSample
	for _, s := range m.matchingSeries(q.Name, q.Labels) {
		s.mu.Lock()
		for _, p := range s.points {
			if q.Start != nil && p.Timestamp.Before(*q.Start) {
				continue
			}
			if q.End != nil && p.Timestamp.After(*q.End) {
				continue
			}
			out = append(out, toSample(s, p))
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) QueryLatest(_ context.Context, name string, labels map[string]string) (*MetricSample, bool, error) {
	s := m.seriesFor(name, labels, false)
	if s == nil {
		return nil, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.points) == 0 {
		return nil, false, nil
	}
	last := toSample(s, s.points[len(s.points)-1])
	return &last, true, nil
}

func (m *MemoryStore) QueryRange(_ context.Context, name string, labels map[string]string, start, end time.Time, step time.Duration, agg Aggregation) ([]RangePoint, error) {
	n := rangeBucketCount(start, end, step)
	result := make([]RangePoint, n)
	for i := range result {
		result[i].Timestamp = start.Add(time.Duration(i) * step)
	}

	s := m.seriesFor(name, labels, false)
	if s == nil {
		return result, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	buckets := make([][]point, n)
	for _, p := range s.points {
		if p.Timestamp.Before(start) || !p.Timestamp.Before(end.Add(step)) {
			continue
		}
		idx := int(p.Timestamp.Sub(start) / step)
		if idx < 0 || idx >= n {
			continue
		}
		buckets[idx] = append(buckets[idx], p)
	}
	for i, pts := range buckets {
		if len(pts) == 0 {
			continue
		}
		v, ok := aggregate(pts, agg)
		if ok {
			result[i].Value = &v
		}
	}
	return result, nil
}

func (m *MemoryStore) MetricNames(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var names []string
	for _, s := range m.series {
		if !seen[s.name] {
			seen[s.name] = true
			names = append(names, s.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStore) SeriesLabels(_ context.Context, name string) ([]map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []map[string]string
	for _, s := range m.series {
		if s.name == name {
			out = append(out, cloneLabels(s.labels))
		}
	}
	return out, nil
}

func (m *MemoryStore) LabelKeys(_ context.Context, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var keys []string
	for _, s := range m.series {
		if s.name != name {
			continue
		}
		for _, k := range sortedLabelKeys(s.labels) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) LabelValues(_ context.Context, name, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var values []string
	for _, s := range m.series {
		if s.name != name {
			continue
		}
		if v, ok := s.labels[key]; ok && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values, nil
}

func (m *MemoryStore) Aggregate(ctx context.Context, q Query, agg Aggregation) (float64, error) {
	samples, err := m.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	pts := make([]point, len(samples))
	for i, s := range samples {
		pts[i] = point{Value: s.Value, StringValue: s.StringValue, IsString: s.IsString, Timestamp: s.Timestamp}
	}
	v, _ := aggregate(pts, agg)
	return v, nil
}

func (m *MemoryStore) Delete(_ context.Context, name string, labels map[string]string, before time.Time, minKeep int) (int, error) {
	s := m.seriesFor(name, labels, false)
	if s == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keepFromEnd := minKeep
	if keepFromEnd < 0 {
		keepFromEnd = 0
	}
	cut := len(s.points) - keepFromEnd
	removed := 0
	kept := make([]point, 0, len(s.points))
	for i, p := range s.points {
		if i < cut && p.Timestamp.Before(before) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	s.points = kept
	return removed, nil
}

func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats Stats
	stats.SeriesCount = len(m.series)
	for _, s := range m.series {
		s.mu.Lock()
		stats.SampleCount += int64(len(s.points))
		s.mu.Unlock()
	}
	return stats, nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) matchingSeries(name string, labels map[string]string) []*memSeries {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*memSeries
	for _, s := range m.series {
		if s.name != name {
			continue
		}
		if !labelsMatch(s.labels, labels) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func labelsMatch(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func cloneLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func toSample(s *memSeries, p point) MetricSample {
	return MetricSample{
		Name: s.name, Labels: s.labels,
		Value: p.Value, StringValue: p.StringValue, IsString: p.IsString,
		Timestamp: p.Timestamp,
	}
}

func aggregate(pts []point, agg Aggregation) (float64, bool) {
	if len(pts) == 0 {
		return 0, false
	}
	switch agg {
	case AggCount:
		return float64(len(pts)), true
	case AggLast:
		return pts[len(pts)-1].Value, true
	}
	for _, p := range pts {
		if p.IsString {
			return 0, false
		}
	}
	switch agg {
	case AggSum:
		var sum float64
		for _, p := range pts {
			sum += p.Value
		}
		return sum, true
	case AggAvg:
		var sum float64
		for _, p := range pts {
			sum += p.Value
		}
		return sum / float64(len(pts)), true
	case AggMin:
		min := pts[0].Value
		for _, p := range pts[1:] {
			if p.Value < min {
				min = p.Value
			}
		}
		return min, true
	case AggMax:
		max := pts[0].Value
		for _, p := range pts[1:] {
			if p.Value > max {
				max = p.Value
			}
		}
		return max, true
	default:
		return 0, false
	}
}
