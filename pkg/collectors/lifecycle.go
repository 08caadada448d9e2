package collectors

import (
	"context"
	"time"

	"github.com/cuemby/beacon/pkg/runtime"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// lifecycleStatus maps a container's inspected status string to the
// numeric gauge value the spec calls for.
var lifecycleStatus = map[string]float64{
	"running":    1,
	"paused":     2,
	"restarting": 3,
	"created":    4,
	"exited":     0,
	"dead":       -1,
}

// LifecycleCollector emits container_uptime_seconds,
// container_restarts_total, container_status, and (only while
// terminal) container_exit_code.
type LifecycleCollector struct {
	baseCollector
	runtimeBound
}

func NewLifecycleCollector(preferred, fallback runtime.Adapter, timeout time.Duration) *LifecycleCollector {
	return &LifecycleCollector{
		baseCollector: newBaseCollector("lifecycle", timeout),
		runtimeBound:  runtimeBound{preferred: preferred, fallback: fallback},
	}
}

func (c *LifecycleCollector) Name() string { return "lifecycle" }

func (c *LifecycleCollector) Initialize(ctx context.Context) (bool, error) { return c.initialize(ctx) }

func (c *LifecycleCollector) Cleanup(context.Context) error { return nil }

func (c *LifecycleCollector) MetricTypes() []string {
	return []string{"container_uptime_seconds", "container_restarts_total", "container_status", "container_exit_code"}
}

func (c *LifecycleCollector) Collect(ctx context.Context, target Target) ([]timeseries.MetricSample, error) {
	return c.collectWithErrorHandling(ctx, func(ctx context.Context) ([]timeseries.MetricSample, error) {
		info, err := c.active.Inspect(ctx, target.ContainerID)
		if err != nil {
			return nil, err
		}
		labels := map[string]string{
			"container_id":   target.ContainerID,
			"container_name": target.ContainerName,
			"runtime":        c.runtimeLabel(),
		}
		now := time.Now()

		var uptime float64
		if info.State.Running {
			if started, err := time.Parse(time.RFC3339Nano, info.State.StartedAt); err == nil {
				uptime = now.Sub(started).Seconds()
			}
		}

		status, ok := lifecycleStatus[info.State.Status]
		if !ok {
			status = -2
		}

		samples := []timeseries.MetricSample{
			{Name: "container_uptime_seconds", Labels: labels, Value: uptime, Timestamp: now},
			{Name: "container_restarts_total", Labels: labels, Value: float64(info.State.RestartCount), Timestamp: now},
			{Name: "container_status", Labels: labels, Value: status, Timestamp: now},
		}
		if !info.State.Running {
			samples = append(samples, timeseries.MetricSample{
				Name: "container_exit_code", Labels: labels, Value: float64(info.State.ExitCode), Timestamp: now,
			})
		}
		return samples, nil
	})
}
