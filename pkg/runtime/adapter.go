package runtime

import "context"

// Adapter is the sub-process contract beacon drives a container
// runtime (docker or podman) through.
type Adapter interface {
	// Name is the CLI binary this adapter shells out to ("docker",
	// "podman"), used as the `runtime` label on derived metrics.
	Name() string

	Version(ctx context.Context) (string, error)
	Stats(ctx context.Context, containerID string) (*Stats, error)
	Inspect(ctx context.Context, containerID string) (*Inspect, error)
	Restart(ctx context.Context, containerID string) error
	Stop(ctx context.Context, containerID string) error
	Start(ctx context.Context, containerID string) error
	Update(ctx context.Context, containerID string, cpus float64, memoryBytes int64) error

	// Events streams the runtime's container event feed until ctx is
	// cancelled. The error channel carries at most one terminal error.
	Events(ctx context.Context) (<-chan Event, <-chan error, error)
}

// CPUUsage mirrors a single cpu_stats/precpu_stats reading.
type CPUUsage struct {
	TotalUsage  uint64   `json:"total_usage"`
	PercpuUsage []uint64 `json:"percpu_usage,omitempty"`
}

// CPUStats is one side (current or previous) of a stats reading, in
// the shape the runtime's stats JSON carries it.
type CPUStats struct {
	CPUUsage       CPUUsage `json:"cpu_usage"`
	SystemCPUUsage uint64   `json:"system_cpu_usage"`
	OnlineCPUs     int      `json:"online_cpus"`
}

// MemoryStats is a container's memory usage/limit reading.
type MemoryStats struct {
	Usage uint64 `json:"usage"`
	Limit uint64 `json:"limit"`
}

// NetworkStats is one interface's counters from a stats reading.
type NetworkStats struct {
	RxBytes   uint64 `json:"rx_bytes"`
	TxBytes   uint64 `json:"tx_bytes"`
	RxPackets uint64 `json:"rx_packets"`
	TxPackets uint64 `json:"tx_packets"`
}

// BlkioEntry is a single block-io accounting line.
type BlkioEntry struct {
	Major uint64 `json:"major"`
	Minor uint64 `json:"minor"`
	Op    string `json:"op"`
	Value uint64 `json:"value"`
}

// BlkioStats is a container's block-io reading.
type BlkioStats struct {
	IOServiceBytesRecursive []BlkioEntry `json:"io_service_bytes_recursive"`
}

// Stats is the parsed response of `stats --no-stream --format json`.
// The runtime reports both the current (CPUStats) and prior
// (PreCPUStats) cpu reading in the same payload, which is what lets
// the CPU% derivation compute a delta from a single call.
type Stats struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	CPUStats    CPUStats                `json:"cpu_stats"`
	PreCPUStats CPUStats                `json:"precpu_stats"`
	MemoryStats MemoryStats             `json:"memory_stats"`
	Networks    map[string]NetworkStats `json:"networks"`
	BlkioStats  BlkioStats              `json:"blkio_stats"`
}

// CPUPercent derives Docker-style CPU% from s: the ratio of the
// cpu_usage delta to the system_cpu_usage delta, scaled by the number
// of online CPUs. A zero or negative delta yields 0.
func (s *Stats) CPUPercent() float64 {
	cpuDelta := float64(s.CPUStats.CPUUsage.TotalUsage) - float64(s.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(s.CPUStats.SystemCPUUsage) - float64(s.PreCPUStats.SystemCPUUsage)
	if cpuDelta <= 0 || systemDelta <= 0 {
		return 0.0
	}
	nCPUs := s.CPUStats.OnlineCPUs
	if nCPUs == 0 {
		nCPUs = len(s.CPUStats.CPUUsage.PercpuUsage)
	}
	if nCPUs == 0 {
		nCPUs = 1
	}
	return (cpuDelta / systemDelta) * float64(nCPUs) * 100.0
}

// Health is the inspected container's health-check state.
type Health struct {
	Status string `json:"Status"`
}

// State is the inspected container's lifecycle state.
type State struct {
	Status     string  `json:"Status"`
	Running    bool    `json:"Running"`
	StartedAt  string  `json:"StartedAt"`
	FinishedAt string  `json:"FinishedAt"`
	RestartCount int   `json:"RestartCount"`
	ExitCode   int     `json:"ExitCode"`
	Health     *Health `json:"Health,omitempty"`
}

// HostConfig is the subset of the inspected container's host
// configuration that carries resource limits.
type HostConfig struct {
	NanoCpus  int64 `json:"NanoCpus"`
	CpuQuota  int64 `json:"CpuQuota"`
	CpuPeriod int64 `json:"CpuPeriod"`
	Memory    int64 `json:"Memory"`
}

// ContainerConfig is the subset of the inspected container's static
// configuration carrying user-assigned labels.
type ContainerConfig struct {
	Labels map[string]string `json:"Labels"`
}

// Inspect is the parsed response of `inspect <id>`.
type Inspect struct {
	ID         string          `json:"Id"`
	Name       string          `json:"Name"`
	Image      string          `json:"Image"`
	State      State           `json:"State"`
	HostConfig HostConfig      `json:"HostConfig"`
	Config     ContainerConfig `json:"Config"`
}

// Event is a single line from the `events --format json` stream.
type Event struct {
	Type  string            `json:"Type"`
	Action string           `json:"Action"`
	Time  int64             `json:"time"`
	Actor struct {
		ID         string            `json:"ID"`
		Attributes map[string]string `json:"Attributes"`
	} `json:"Actor"`
}
