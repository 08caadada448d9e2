/*
Package hooks implements beacon's hook registry and dispatcher — the
dependency-aware, timeout-bounded automation layer that reacts to
events published on the bus.

A Hook declares which event kinds trigger it, a priority (lower value
runs first), a timeout, and resource requirements. The Registry holds
the full hook set plus a dependency DAG between them; add_dep/remove_dep
reject edges that would introduce a cycle. execution_order topologically
sorts a subset of hooks, breaking ties by priority ascending.

The Dispatcher resolves candidates for an event, orders them via the
registry (falling back to priority order if a cycle slips through),
and runs them one at a time — folding each result into an immutable
HookContext so later hooks observe earlier ones' execution_history.
A global semaphore bounds how many hooks may be mid-execute across all
concurrent dispatches; a per-hook deadline bounds both the semaphore
wait and the execute call. A hook that panics, errors, or times out
produces a failure HookResult and never stops the remaining hooks in
the list or affects the dispatcher's own health.
*/
package hooks
