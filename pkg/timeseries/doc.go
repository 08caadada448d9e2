/*
Package timeseries is beacon's metric sample store. A MetricSample
belongs to a series identified by its Fingerprint — the metric name
plus its sorted label pairs — and every series is an ordered-by-time
point list behind the Store contract.

Two backends satisfy Store: MemoryStore, a lock-protected map of
fingerprint to a bounded, oldest-first-evicted point slice; and
BoltStore, a bbolt-backed persistent backend using one bucket for
series metadata (fingerprint → name/labels) and one for samples, keyed
by fingerprint followed by a big-endian timestamp so a single cursor
scan yields a series' points in time order.

Range queries return exactly ceil((end-start)/step)+1 fixed-width
buckets; retention deletes honor a per-series minimum point count even
when every point in that series is older than the cutoff.
*/
package timeseries
