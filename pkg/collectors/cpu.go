package collectors

import (
	"context"
	"time"

	"github.com/cuemby/beacon/pkg/runtime"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// CPUCollector emits cpu_usage_percent derived from the runtime's
// cpu_stats/precpu_stats delta.
type CPUCollector struct {
	baseCollector
	runtimeBound
}

func NewCPUCollector(preferred, fallback runtime.Adapter, timeout time.Duration) *CPUCollector {
	return &CPUCollector{
		baseCollector: newBaseCollector("cpu", timeout),
		runtimeBound:  runtimeBound{preferred: preferred, fallback: fallback},
	}
}

func (c *CPUCollector) Name() string { return "cpu" }

func (c *CPUCollector) Initialize(ctx context.Context) (bool, error) { return c.initialize(ctx) }

func (c *CPUCollector) Cleanup(context.Context) error { return nil }

func (c *CPUCollector) MetricTypes() []string { return []string{"cpu_usage_percent"} }

func (c *CPUCollector) Collect(ctx context.Context, target Target) ([]timeseries.MetricSample, error) {
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
		return []timeseries.MetricSample{{
			Name: "cpu_usage_percent", Labels: labels,
			Value: stats.CPUPercent(), Timestamp: time.Now(),
		}}, nil
	})
}
