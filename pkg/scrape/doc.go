/*
Package scrape renders stored timeseries.MetricSample values into the
Prometheus text exposition format: one TYPE and one HELP comment per
metric family, followed by one sample line per series. Metric and
label identifiers are sanitized into valid exposition-format tokens
before formatting, and families/lines are emitted in a fixed sort
order so Format is byte-stable for a fixed sample set.
*/
package scrape
