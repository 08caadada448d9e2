/*
Package runtime adapts beacon to a container runtime's CLI rather than
its native client library: every operation shells out to a sub-process
(docker or podman) and parses its JSON output, matching the sub-process
contract collectors and remediation hooks are written against.

# Sub-process contract

	version
	stats --no-stream --format json <id>
	inspect <id>
	restart <id>
	stop <id>
	start <id>
	update --cpus N --memory Nb <id>
	events --format json --filter type=container

Keys of interest in the parsed JSON: State.StartedAt, State.RestartCount,
State.ExitCode, State.Health.Status, HostConfig.NanoCpus (or
HostConfig.CpuQuota/CpuPeriod), HostConfig.Memory, and the network/blkio
stats subtrees.

# Probing

Probe tries the preferred adapter's `version` first; on failure it
tries the fallback. Collectors record which name won in the `runtime`
label, per the spec's runtime-probing contract.
*/
package runtime
