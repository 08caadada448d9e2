/*
Package alerts implements beacon's alert rule engine: AlertRule
conditions evaluated on a cadence against recent timeseries samples,
producing Alert records that move through the
Pending → Firing → Resolved/Acknowledged/Silenced state machine and are
handed to a Notifier for dispatch.

Engine.EvaluateTick drives one evaluation cycle. Each AlertRule tracks
its own first-detection and last-fired timestamps so for_duration
debounce and throttle_duration suppression apply per rule, independent
of every other rule's state.
*/
package alerts
