package collectors

import (
	"context"
	"time"

	"github.com/cuemby/beacon/pkg/runtime"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// MemoryCollector emits memory_usage_bytes, memory_limit_bytes, and
// memory_usage_percent from the runtime's memory_stats reading.
type MemoryCollector struct {
	baseCollector
	runtimeBound
}

func NewMemoryCollector(preferred, fallback runtime.Adapter, timeout time.Duration) *MemoryCollector {
	return &MemoryCollector{
		baseCollector: newBaseCollector("memory", timeout),
		runtimeBound:  runtimeBound{preferred: preferred, fallback: fallback},
	}
}

func (c *MemoryCollector) Name() string { return "memory" }

func (c *MemoryCollector) Initialize(ctx context.Context) (bool, error) { return c.initialize(ctx) }

func (c *MemoryCollector) Cleanup(context.Context) error { return nil }

func (c *MemoryCollector) MetricTypes() []string {
	return []string{"memory_usage_bytes", "memory_limit_bytes", "memory_usage_percent"}
}

func (c *MemoryCollector) Collect(ctx context.Context, target Target) ([]timeseries.MetricSample, error) {
	return c.collectWithErrorHandling(ctx, func(ctx context.Context) ([]timeseries.MetricSample, error) {
		stats, err := c.active.Stats(ctx, target.ContainerID)
		if err != nil {
			return nil, err
		}
		labels := map[string]string{
			"container_id":   target.ContainerID,
			"container_name": target.ContainerName,
			"runtime":        c.runtimeLabel(),
		}
		now := time.Now()
		var percent float64
		if stats.MemoryStats.Limit > 0 {
			percent = (float64(stats.MemoryStats.Usage) / float64(stats.MemoryStats.Limit)) * 100.0
		}
		return []timeseries.MetricSample{
			{Name: "memory_usage_bytes", Labels: labels, Value: float64(stats.MemoryStats.Usage), Timestamp: now},
			{Name: "memory_limit_bytes", Labels: labels, Value: float64(stats.MemoryStats.Limit), Timestamp: now},
			{Name: "memory_usage_percent", Labels: labels, Value: percent, Timestamp: now},
		}, nil
	})
}
