package collectors

import (
	"context"
	"sort"
	"time"

	"github.com/cuemby/beacon/pkg/runtime"
	"github.com/cuemby/beacon/pkg/timeseries"
)

// NetworkCollector emits per-interface and aggregate
// network_rx_bytes_total / network_tx_bytes_total counters.
type NetworkCollector struct {
	baseCollector
	runtimeBound
}

func NewNetworkCollector(preferred, fallback runtime.Adapter, timeout time.Duration) *NetworkCollector {
	return &NetworkCollector{
		baseCollector: newBaseCollector("network", timeout),
		runtimeBound:  runtimeBound{preferred: preferred, fallback: fallback},
	}
}

func (c *NetworkCollector) Name() string { return "network" }

func (c *NetworkCollector) Initialize(ctx context.Context) (bool, error) { return c.initialize(ctx) }

func (c *NetworkCollector) Cleanup(context.Context) error { return nil }

func (c *NetworkCollector) MetricTypes() []string {
	return []string{"network_rx_bytes_total", "network_tx_bytes_total"}
}

func (c *NetworkCollector) Collect(ctx context.Context, target Target) ([]timeseries.MetricSample, error) {
	return c.collectWithErrorHandling(ctx, func(ctx context.Context) ([]timeseries.MetricSample, error) {
		stats, err := c.active.Stats(ctx, target.ContainerID)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		baseLabels := func(iface string) map[string]string {
			l := map[string]string{
				"container_id":   target.ContainerID,
				"container_name": target.ContainerName,
				"runtime":        c.runtimeLabel(),
			}
			if iface != "" {
				l["interface"] = iface
			}
			return l
		}

		var samples []timeseries.MetricSample
		var totalRx, totalTx uint64

		ifaces := make([]string, 0, len(stats.Networks))
		for iface := range stats.Networks {
			ifaces = append(ifaces, iface)
		}
		sort.Strings(ifaces)

		for _, iface := range ifaces {
			n := stats.Networks[iface]
			totalRx += n.RxBytes
			totalTx += n.TxBytes
			samples = append(samples,
				timeseries.MetricSample{Name: "network_rx_bytes_total", Labels: baseLabels(iface), Value: float64(n.RxBytes), Timestamp: now},
				timeseries.MetricSample{Name: "network_tx_bytes_total", Labels: baseLabels(iface), Value: float64(n.TxBytes), Timestamp: now},
			)
		}

		samples = append(samples,
			timeseries.MetricSample{Name: "network_rx_bytes_total", Labels: baseLabels(""), Value: float64(totalRx), Timestamp: now},
			timeseries.MetricSample{Name: "network_tx_bytes_total", Labels: baseLabels(""), Value: float64(totalTx), Timestamp: now},
		)
		return samples, nil
	})
}
