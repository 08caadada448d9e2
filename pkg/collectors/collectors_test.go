package collectors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/beacon/pkg/runtime"
)

func statsFixture() *runtime.Stats {
	return &runtime.Stats{
		CPUStats: runtime.CPUStats{
			CPUUsage:       runtime.CPUUsage{TotalUsage: 2_000_000_000},
			SystemCPUUsage: 10_000_000_000,
			OnlineCPUs:     2,
		},
		PreCPUStats: runtime.CPUStats{
			CPUUsage:       runtime.CPUUsage{TotalUsage: 1_000_000_000},
			SystemCPUUsage: 5_000_000_000,
		},
		MemoryStats: runtime.MemoryStats{Usage: 256, Limit: 1024},
		Networks: map[string]runtime.NetworkStats{
			"eth0": {RxBytes: 100, TxBytes: 50},
		},
		BlkioStats: runtime.BlkioStats{IOServiceBytesRecursive: []runtime.BlkioEntry{
			{Op: "Read", Value: 10}, {Op: "Write", Value: 20},
		}},
	}
}

func TestCPUCollectorEmitsPercent(t *testing.T) {
	adapter := &fakeAdapter{name: "docker", statsResult: statsFixture()}
	c := NewCPUCollector(adapter, nil, time.Second)
	ok, err := c.Initialize(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	samples, err := c.Collect(context.Background(), Target{ContainerID: "c1", ContainerName: "web"})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "cpu_usage_percent", samples[0].Name)
	assert.InDelta(t, 40.0, samples[0].Value, 0.001) // (2e9-1e9)/(10e9-5e9)*2*100 = 40
	assert.Equal(t, "docker", samples[0].Labels["runtime"])
}

func TestMemoryCollectorEmitsUsageLimitPercent(t *testing.T) {
	adapter := &fakeAdapter{name: "docker", statsResult: statsFixture()}
	c := NewMemoryCollector(adapter, nil, time.Second)
	_, _ = c.Initialize(context.Background())

	samples, err := c.Collect(context.Background(), Target{ContainerID: "c1"})
	require.NoError(t, err)
	require.Len(t, samples, 3)
	byName := map[string]float64{}
	for _, s := range samples {
		byName[s.Name] = s.Value
	}
	assert.Equal(t, 256.0, byName["memory_usage_bytes"])
	assert.Equal(t, 1024.0, byName["memory_limit_bytes"])
	assert.InDelta(t, 25.0, byName["memory_usage_percent"], 0.001)
}

func TestNetworkCollectorEmitsPerInterfaceAndAggregate(t *testing.T) {
	adapter := &fakeAdapter{name: "docker", statsResult: statsFixture()}
	c := NewNetworkCollector(adapter, nil, time.Second)
	_, _ = c.Initialize(context.Background())

	samples, err := c.Collect(context.Background(), Target{ContainerID: "c1"})
	require.NoError(t, err)
	// eth0 rx+tx, plus aggregate rx+tx
	assert.Len(t, samples, 4)
}

func TestDiskIOCollectorSumsReadWrite(t *testing.T) {
	adapter := &fakeAdapter{name: "docker", statsResult: statsFixture()}
	c := NewDiskIOCollector(adapter, nil, time.Second)
	_, _ = c.Initialize(context.Background())

	samples, err := c.Collect(context.Background(), Target{ContainerID: "c1"})
	require.NoError(t, err)
	byName := map[string]float64{}
	for _, s := range samples {
		byName[s.Name] = s.Value
	}
	assert.Equal(t, 10.0, byName["disk_io_read_bytes_total"])
	assert.Equal(t, 20.0, byName["disk_io_write_bytes_total"])
}

func TestLifecycleCollectorReportsStatusAndExitCode(t *testing.T) {
	adapter := &fakeAdapter{name: "docker", inspectResult: &runtime.Inspect{
		State: runtime.State{Status: "exited", Running: false, ExitCode: 137, RestartCount: 2},
	}}
	c := NewLifecycleCollector(adapter, nil, time.Second)
	_, _ = c.Initialize(context.Background())

	samples, err := c.Collect(context.Background(), Target{ContainerID: "c1"})
	require.NoError(t, err)
	byName := map[string]float64{}
	for _, s := range samples {
		byName[s.Name] = s.Value
	}
	assert.Equal(t, 0.0, byName["container_status"])
	assert.Equal(t, 137.0, byName["container_exit_code"])
	assert.Equal(t, 2.0, byName["container_restarts_total"])
}

func TestCollectorFlipsUnhealthyAfterFiveConsecutiveErrors(t *testing.T) {
	adapter := &fakeAdapter{name: "docker", statsErr: errors.New("boom")}
	c := NewCPUCollector(adapter, nil, time.Second)
	_, _ = c.Initialize(context.Background())

	for i := 0; i < 4; i++ {
		_, err := c.Collect(context.Background(), Target{ContainerID: "c1"})
		require.Error(t, err)
		assert.True(t, c.Status().Healthy)
	}
	_, err := c.Collect(context.Background(), Target{ContainerID: "c1"})
	require.Error(t, err)
	assert.False(t, c.Status().Healthy)

	adapter.statsErr = nil
	adapter.statsResult = statsFixture()
	_, err = c.Collect(context.Background(), Target{ContainerID: "c1"})
	require.NoError(t, err)
	assert.True(t, c.Status().Healthy)
}

func TestRegistryIsolatesFailingCollector(t *testing.T) {
	good := &fakeAdapter{name: "docker", statsResult: statsFixture()}
	bad := &fakeAdapter{name: "docker", statsErr: errors.New("boom")}

	registry := NewCollectorRegistry()
	registry.Register(NewCPUCollector(good, nil, time.Second))
	registry.Register(NewNetworkCollector(bad, nil, time.Second))

	registry.InitializeAll(context.Background())

	samples := registry.CollectAll(context.Background(), Target{ContainerID: "c1"})
	names := map[string]bool{}
	for _, s := range samples {
		names[s.Name] = true
	}
	assert.True(t, names["cpu_usage_percent"])
	assert.False(t, names["network_rx_bytes_total"])
}

func TestRegistrySkipsDisabledCollector(t *testing.T) {
	adapter := &fakeAdapter{name: "docker", statsResult: statsFixture()}
	c := NewCPUCollector(adapter, nil, time.Second)
	c.SetEnabled(false)

	registry := NewCollectorRegistry()
	registry.Register(c)

	samples := registry.CollectAll(context.Background(), Target{ContainerID: "c1"})
	assert.Empty(t, samples)
}
