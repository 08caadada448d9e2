/*
Package obsmetrics exposes beacon's own operational metrics — not the
container/application metrics beacon collects and stores (that's
pkg/timeseries + pkg/scrape), but counters and histograms describing
beacon's own health: hook dispatch latency, event bus queue depth,
collector error rates, notification delivery outcomes.

These are registered with the default prometheus registry and served
on a separate internal path from the domain-metrics scrape endpoint,
grounded on the teacher's pkg/metrics package. A Timer helper times an
operation and records it to a histogram; HealthHandler/ReadyHandler/
LivenessHandler back a small operational health surface independent of
the domain alert engine.
*/
package obsmetrics
