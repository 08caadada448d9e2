/*
Package builtin provides beacon's default remediation hooks: concrete
hooks.Hook implementations that react to lifecycle, metric-threshold,
and log-pattern events by restarting unhealthy containers, surfacing
recurring log error patterns, and rebalancing CPU/memory limits.

Each hook keeps its own small bounded pieces of state (restart
attempt counters, cooldown timestamps, a rolling metric window) and
drives the container runtime exclusively through pkg/runtime.Adapter,
never shelling out directly.
*/
package builtin
