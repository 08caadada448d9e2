package collectors

import (
	"context"
	"strings"
	"time"

	"github.com/cuemby/beacon/pkg/runtime"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// DiskIOCollector emits disk_io_read_bytes_total and
// disk_io_write_bytes_total, summed across the runtime's
// io_service_bytes_recursive block-io entries.
type DiskIOCollector struct {
	baseCollector
	runtimeBound
}

func NewDiskIOCollector(preferred, fallback runtime.Adapter, timeout time.Duration) *DiskIOCollector {
	return &DiskIOCollector{
		baseCollector: newBaseCollector("disk_io", timeout),
		runtimeBound:  runtimeBound{preferred: preferred, fallback: fallback},
	}
}

func (c *DiskIOCollector) Name() string { return "disk_io" }

func (c *DiskIOCollector) Initialize(ctx context.Context) (bool, error) { return c.initialize(ctx) }

func (c *DiskIOCollector) Cleanup(context.Context) error { return nil }

func (c *DiskIOCollector) MetricTypes() []string {
	return []string{"disk_io_read_bytes_total", "disk_io_write_bytes_total"}
}

func (c *DiskIOCollector) Collect(ctx context.Context, target Target) ([]timeseries.MetricSample, error) {
	return c.collectWithErrorHandling(ctx, func(ctx context.Context) ([]timeseries.MetricSample, error) {
		stats, err := c.active.Stats(ctx, target.ContainerID)
		if err != nil {
			return nil, err
		}
		var read, write uint64
		for _, e := range stats.BlkioStats.IOServiceBytesRecursive {
			switch strings.ToLower(e.Op) {
			case "read":
				read += e.Value
			case "write":
				write += e.Value
			}
		}
		labels := map[string]string{
			"container_id":   target.ContainerID,
			"container_name": target.ContainerName,
			"runtime":        c.runtimeLabel(),
		}
		now := time.Now()
		return []timeseries.MetricSample{
			{Name: "disk_io_read_bytes_total", Labels: labels, Value: float64(read), Timestamp: now},
			{Name: "disk_io_write_bytes_total", Labels: labels, Value: float64(write), Timestamp: now},
		}, nil
	})
}
