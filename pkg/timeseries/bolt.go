package timeseries

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/cuemby/beacon/pkg/errs"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketSeriesMeta = []byte("series_meta")
	bucketSamples    = []byte("samples")
)

// seriesMeta is the bucketSeriesMeta value for a fingerprint.
type seriesMeta struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
}

// BoltStore is a bbolt-backed persistent Store. Samples are keyed by
// fingerprint (8 bytes, big-endian), the sample's unix-nano timestamp
// (8 bytes, big-endian), and a bucket-wide monotonic sequence (8
// bytes, big-endian), so a cursor seek on the fingerprint prefix
// yields one series' points in time order without a secondary index.
// The sequence suffix disambiguates samples that land on the same
// timestamp — without it a second Put at an identical key would
// silently overwrite the first. Series metadata (name + labels) lives
// in a separate bucket keyed by the bare fingerprint.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if necessary) a single bbolt file under
// dataDir. Grounded on the teacher's pkg/storage.NewBoltStore.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "beacon-timeseries.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, errs.New(errs.Dependency, "timeseries.open", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSeriesMeta); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketSamples)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errs.New(errs.Dependency, "timeseries.init", err)
	}

	return &BoltStore{db: db}, nil
}

func sampleKey(fp Fingerprint, ts time.Time, seq uint64) []byte {
	key := make([]byte, 24)
	binary.BigEndian.PutUint64(key[:8], uint64(fp))
	binary.BigEndian.PutUint64(key[8:16], uint64(ts.UnixNano()))
	binary.BigEndian.PutUint64(key[16:], seq)
	return key
}

func fingerprintKey(fp Fingerprint) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(fp))
	return key
}

func (b *BoltStore) Store(_ context.Context, samples []MetricSample) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketSeriesMeta)
		data := tx.Bucket(bucketSamples)
		for _, s := range samples {
			fp := s.Fingerprint()
			mk := fingerprintKey(fp)
			if meta.Get(mk) == nil {
				encoded, err := json.Marshal(seriesMeta{Name: s.Name, Labels: cloneLabels(s.Labels)})
				if err != nil {
					return err
				}
				if err := meta.Put(mk, encoded); err != nil {
					return err
				}
			}
			encoded, err := json.Marshal(point{Value: s.Value, StringValue: s.StringValue, IsString: s.IsString, Timestamp: s.Timestamp})
			if err != nil {
				return err
			}
			seq, err := data.NextSequence()
			if err != nil {
				return err
			}
			if err := data.Put(sampleKey(fp, s.Timestamp, seq), encoded); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltStore) metaFor(tx *bolt.Tx, name string, labels map[string]string) (Fingerprint, *seriesMeta, error) {
	fp := NewFingerprint(name, labels)
	raw := tx.Bucket(bucketSeriesMeta).Get(fingerprintKey(fp))
	if raw == nil {
		return fp, nil, nil
	}
	var m seriesMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return fp, nil, err
	}
	return fp, &m, nil
}

func (b *BoltStore) scanSeries(tx *bolt.Tx, fp Fingerprint) ([]point, error) {
	c := tx.Bucket(bucketSamples).Cursor()
	prefix := fingerprintKey(fp)
	var pts []point
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		var p point
		if err := json.Unmarshal(v, &p); err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (b *BoltStore) Query(_ context.Context, q Query) ([]MetricSample, error) {
	var out []MetricSample
	err := b.db.View(func(tx *bolt.Tx) error {
		fp, meta, err := b.metaFor(tx, q.Name, q.Labels)
		if err != nil || meta == nil {
			return err
		}
		pts, err := b.scanSeries(tx, fp)
		if err != nil {
			return err
		}
		for _, p := range pts {
			if q.Start != nil && p.Timestamp.Before(*q.Start) {
				continue
			}
			if q.End != nil && p.Timestamp.After(*q.End) {
				continue
			}
			out = append(out, MetricSample{Name: meta.Name, Labels: meta.Labels, Value: p.Value, StringValue: p.StringValue, IsString: p.IsString, Timestamp: p.Timestamp})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (b *BoltStore) QueryLatest(_ context.Context, name string, labels map[string]string) (*MetricSample, bool, error) {
	var result *MetricSample
	err := b.db.View(func(tx *bolt.Tx) error {
		fp, meta, err := b.metaFor(tx, name, labels)
		if err != nil || meta == nil {
			return err
		}
		pts, err := b.scanSeries(tx, fp)
		if err != nil || len(pts) == 0 {
			return err
		}
		p := pts[len(pts)-1]
		result = &MetricSample{Name: meta.Name, Labels: meta.Labels, Value: p.Value, StringValue: p.StringValue, IsString: p.IsString, Timestamp: p.Timestamp}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, result != nil, nil
}

func (b *BoltStore) QueryRange(_ context.Context, name string, labels map[string]string, start, end time.Time, step time.Duration, agg Aggregation) ([]RangePoint, error) {
	n := rangeBucketCount(start, end, step)
	result := make([]RangePoint, n)
	for i := range result {
		result[i].Timestamp = start.Add(time.Duration(i) * step)
	}

	err := b.db.View(func(tx *bolt.Tx) error {
		fp, meta, err := b.metaFor(tx, name, labels)
		if err != nil || meta == nil {
			return err
		}
		pts, err := b.scanSeries(tx, fp)
		if err != nil {
			return err
		}
		buckets := make([][]point, n)
		for _, p := range pts {
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
		return nil
	})
	return result, err
}

func (b *BoltStore) MetricNames(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSeriesMeta).ForEach(func(_, v []byte) error {
			var m seriesMeta
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			if !seen[m.Name] {
				seen[m.Name] = true
				names = append(names, m.Name)
			}
			return nil
		})
	})
	sort.Strings(names)
	return names, err
}

func (b *BoltStore) SeriesLabels(_ context.Context, name string) ([]map[string]string, error) {
	var out []map[string]string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSeriesMeta).ForEach(func(_, v []byte) error {
			var m seriesMeta
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			if m.Name == name {
				out = append(out, m.Labels)
			}
			return nil
		})
	})
	return out, err
}

func (b *BoltStore) LabelKeys(_ context.Context, name string) ([]string, error) {
	seen := map[string]bool{}
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSeriesMeta).ForEach(func(_, v []byte) error {
			var m seriesMeta
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			if m.Name != name {
				return nil
			}
			for _, k := range sortedLabelKeys(m.Labels) {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
			return nil
		})
	})
	sort.Strings(keys)
	return keys, err
}

func (b *BoltStore) LabelValues(_ context.Context, name, key string) ([]string, error) {
	seen := map[string]bool{}
	var values []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSeriesMeta).ForEach(func(_, v []byte) error {
			var m seriesMeta
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			if m.Name != name {
				return nil
			}
			if val, ok := m.Labels[key]; ok && !seen[val] {
				seen[val] = true
				values = append(values, val)
			}
			return nil
		})
	})
	sort.Strings(values)
	return values, err
}

func (b *BoltStore) Aggregate(ctx context.Context, q Query, agg Aggregation) (float64, error) {
	samples, err := b.Query(ctx, q)
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

func (b *BoltStore) Delete(_ context.Context, name string, labels map[string]string, before time.Time, minKeep int) (int, error) {
	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		fp, meta, err := b.metaFor(tx, name, labels)
		if err != nil || meta == nil {
			return err
		}
		bucket := tx.Bucket(bucketSamples)
		c := bucket.Cursor()
		prefix := fingerprintKey(fp)

		var keys [][]byte
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			dup := make([]byte, len(k))
			copy(dup, k)
			keys = append(keys, dup)
		}

		keepFromEnd := minKeep
		if keepFromEnd < 0 {
			keepFromEnd = 0
		}
		cut := len(keys) - keepFromEnd
		for i, k := range keys {
			if i >= cut {
				continue
			}
			ts := int64(binary.BigEndian.Uint64(k[8:16]))
			if time.Unix(0, ts).Before(before) {
				if err := bucket.Delete(k); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func (b *BoltStore) Stats(_ context.Context) (Stats, error) {
	var stats Stats
	err := b.db.View(func(tx *bolt.Tx) error {
		stats.SeriesCount = tx.Bucket(bucketSeriesMeta).Stats().KeyN
		stats.SampleCount = int64(tx.Bucket(bucketSamples).Stats().KeyN)
		return nil
	})
	return stats, err
}

func (b *BoltStore) Close() error {
	if err := b.db.Close(); err != nil {
		return errs.New(errs.Dependency, "timeseries.close", err)
	}
	return nil
}

