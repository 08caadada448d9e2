/*
Package events defines beacon's event model and the event bus that
carries it.

An Event is an immutable envelope (id, timestamp, source, kind,
severity, labels, correlation id) wrapping a kind-specific payload —
FileEvent, MetricThresholdEvent, SystemEvent, GitEvent, BuildEvent,
DependencyEvent, LifecycleEvent, and the private LogPatternEvent
extension. In beacond, the runtime adapter's event feed and the
health prober publish events to a Bus; the Bus fans them out to
subscribers in priority order. Collected metric samples do not pass
through the Bus: collectors write them to a timeseries.Store directly,
and no Bus subscriber persists events to the store.

# Architecture

	Sensors ──publish──▶ Bus (bounded FIFO queue)
	                       │
	                 single consumer loop
	                       │
	          ┌────────────┴────────────┐
	          ▼                         ▼
	   hooks.Dispatcher          lifecycle.Manager
	  (runs triggered hooks     (derives restart and
	   in dependency order)      uptime metrics)

Publish is non-blocking and best-effort: a full queue returns
errs.QueueFull rather than dropping silently, so a publisher can
retry, shed, or block according to its own policy. Within a single
event, matching subscriptions are invoked in parallel, sorted
higher-priority-first (stable across equal priorities); a handler
failing does not prevent other handlers for the same event from
running, nor does it stop the dispatch loop. Across events, dispatch
follows strict queue FIFO order.

The Bus moves through an explicit state machine:
Stopped → Running (Start) → Draining (Stop, finishes in-flight
handlers) → Stopped. Start/Stop are idempotent.
*/
package events
