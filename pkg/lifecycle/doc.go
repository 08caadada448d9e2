/*
Package lifecycle derives restart-loop detection and uptime/
availability statistics from a stream of container lifecycle events,
and emits the results as timeseries.MetricSample values.

RestartTracker keeps a per-container rolling window of restart
timestamps, from which container_restarts_total, is_restart_loop, and
a restart rate are derived. UptimeTracker keeps a per-container list
of (start, end) sessions, from which current uptime, uptime
percentage, and an availability grade are derived. Manager wires both
trackers to an events.Bus subscription and writes the derived samples
into a timeseries.Store on each lifecycle event.
*/
package lifecycle
