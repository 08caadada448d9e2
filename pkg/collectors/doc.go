/*
Package collectors implements beacon's pluggable per-resource metric
collectors (CPU, memory, network, disk I/O, lifecycle) and the
CollectorRegistry that fans a collection request for one target out to
every enabled, healthy collector concurrently.

Every collector embeds baseCollector, which wraps the concrete
Collect implementation with the shared error-handling discipline:
consecutive failures are counted, the collector flips unhealthy after
five in a row, and the next success flips it back. A collector's
failures never affect any other collector's results for the same
target.
*/
package collectors
