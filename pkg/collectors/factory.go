package collectors

import (
	"time"

	"github.com/cuemby/beacon/pkg/runtime"
)

// CollectorSpec is the subset of pkg/config.CollectorConfig this
// package needs, kept narrow so collectors never imports pkg/config
// directly — the caller (cmd/beacond) adapts its config.Config into
// this shape.
type CollectorSpec struct {
	Enabled            bool
	Type               string
	CollectionInterval time.Duration
	Timeout            time.Duration
}

// NewRegistryFromConfig builds a CollectorRegistry from a named set of
// collector specs, binding each enabled entry's Type to the concrete
// collector constructor it names and the given preferred/fallback
// runtime adapters. An entry whose Type names no known collector is
// skipped rather than failing registry construction, matching the
// teacher's tolerant plugin-loading style in pkg/scheduler.
func NewRegistryFromConfig(specs map[string]CollectorSpec, preferred, fallback runtime.Adapter) *CollectorRegistry {
	reg := NewCollectorRegistry()
	for name, cfg := range specs {
		if !cfg.Enabled {
			continue
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		c := newCollectorByType(cfg.Type, preferred, fallback, timeout)
		if c == nil {
			continue
		}
		_ = name // collectors register under their own Name(), not the config key
		reg.Register(c)
	}
	return reg
}

func newCollectorByType(kind string, preferred, fallback runtime.Adapter, timeout time.Duration) Collector {
	switch kind {
	case "cpu":
		return NewCPUCollector(preferred, fallback, timeout)
	case "memory":
		return NewMemoryCollector(preferred, fallback, timeout)
	case "disk_io", "diskio":
		return NewDiskIOCollector(preferred, fallback, timeout)
	case "network":
		return NewNetworkCollector(preferred, fallback, timeout)
	case "lifecycle":
		return NewLifecycleCollector(preferred, fallback, timeout)
	default:
		return nil
	}
}
