package builtin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/hooks"
	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/runtime"
)

const (
	metricCPUUsagePercent    = "container.cpu.usage_percent"
	metricMemoryUsagePercent = "container.memory.usage_percent"
)

type metricWindow struct {
	values []float64
}

func (w *metricWindow) add(v float64, max int) {
	w.values = append(w.values, v)
	if len(w.values) > max {
		w.values = w.values[len(w.values)-max:]
	}
}

func (w *metricWindow) average() (float64, bool) {
	if len(w.values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range w.values {
		sum += v
	}
	return sum / float64(len(w.values)), true
}

// ContainerResourceScalingHook watches CPU/memory threshold events
// and nudges a container's resource limits up or down in bounded
// increments once enough samples agree the container is consistently
// over or under its thresholds. Grounded on the original
// ContainerResourceScalingHook's rolling-average gate and scaling
// increments, driven here through runtime.Adapter.Update instead of
// a raw subprocess call.
type ContainerResourceScalingHook struct {
	Runtime runtime.Adapter

	CPUHighThreshold    float64
	CPULowThreshold     float64
	MemoryHighThreshold float64
	MemoryLowThreshold  float64

	CPUScalingIncrement    float64
	MemoryScalingIncrement int64 // bytes
	MinCPULimit            float64
	MaxCPULimit            float64
	MinMemoryLimit         int64
	MaxMemoryLimit         int64

	MinSamples       int
	ScalingCooldown  time.Duration
	ExcludedContainers map[string]bool

	mu            sync.Mutex
	cpuWindow     map[string]*metricWindow
	memWindow     map[string]*metricWindow
	lastScaling   map[string]time.Time
}

// NewContainerResourceScalingHook returns a hook configured with the
// original implementation's defaults.
func NewContainerResourceScalingHook(adapter runtime.Adapter) *ContainerResourceScalingHook {
	return &ContainerResourceScalingHook{
		Runtime:                adapter,
		CPUHighThreshold:       80,
		CPULowThreshold:        20,
		MemoryHighThreshold:    80,
		MemoryLowThreshold:     20,
		CPUScalingIncrement:    0.25,
		MemoryScalingIncrement: 256 * 1024 * 1024,
		MinCPULimit:            0.25,
		MaxCPULimit:            4,
		MinMemoryLimit:         128 * 1024 * 1024,
		MaxMemoryLimit:         8 * 1024 * 1024 * 1024,
		MinSamples:             3,
		ScalingCooldown:        5 * time.Minute,
		ExcludedContainers:     map[string]bool{},
		cpuWindow:              map[string]*metricWindow{},
		memWindow:              map[string]*metricWindow{},
		lastScaling:            map[string]time.Time{},
	}
}

func (h *ContainerResourceScalingHook) ID() string          { return "container_resource_scaling" }
func (h *ContainerResourceScalingHook) Name() string        { return "Container Resource Scaling" }
func (h *ContainerResourceScalingHook) Description() string {
	return "Rebalances CPU/memory limits in response to sustained over/under-utilization"
}
func (h *ContainerResourceScalingHook) Enabled() bool          { return true }
func (h *ContainerResourceScalingHook) Priority() hooks.Priority { return hooks.PriorityNormal }
func (h *ContainerResourceScalingHook) Triggers() []events.Kind {
	return []events.Kind{events.KindMetricThreshold}
}
func (h *ContainerResourceScalingHook) Timeout() time.Duration { return 10 * time.Second }
func (h *ContainerResourceScalingHook) ResourceRequirements() hooks.ResourceRequirements {
	return hooks.ResourceRequirements{CPU: 0.1, Memory: 50, Disk: 10}
}

func (h *ContainerResourceScalingHook) containerName(ctx *hooks.HookContext) (string, events.MetricThresholdPayload, bool) {
	payload, ok := ctx.TriggerEvent.Payload.(events.MetricThresholdPayload)
	if !ok {
		return "", payload, false
	}
	name, ok := payload.Labels["container_name"]
	return name, payload, ok
}

func (h *ContainerResourceScalingHook) ShouldExecute(ctx *hooks.HookContext) bool {
	name, payload, ok := h.containerName(ctx)
	if !ok || h.ExcludedContainers[name] {
		return false
	}
	if payload.MetricName != metricCPUUsagePercent && payload.MetricName != metricMemoryUsagePercent {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if time.Since(h.lastScaling[name]) < h.ScalingCooldown {
		return false
	}

	h.recordLocked(name, payload.MetricName, payload.Value)

	cpuAvg, haveCPU := h.averageLocked(h.cpuWindow, name)
	memAvg, haveMem := h.averageLocked(h.memWindow, name)

	cpuOut := haveCPU && (cpuAvg > h.CPUHighThreshold || cpuAvg < h.CPULowThreshold)
	memOut := haveMem && (memAvg > h.MemoryHighThreshold || memAvg < h.MemoryLowThreshold)
	return cpuOut || memOut
}

func (h *ContainerResourceScalingHook) recordLocked(name, metric string, value float64) {
	var window map[string]*metricWindow
	switch metric {
	case metricCPUUsagePercent:
		window = h.cpuWindow
	case metricMemoryUsagePercent:
		window = h.memWindow
	default:
		return
	}
	w, ok := window[name]
	if !ok {
		w = &metricWindow{}
		window[name] = w
	}
	w.add(value, h.MinSamples*4)
}

func (h *ContainerResourceScalingHook) averageLocked(window map[string]*metricWindow, name string) (float64, bool) {
	w, ok := window[name]
	if !ok || len(w.values) < h.MinSamples {
		return 0, false
	}
	return w.average()
}

func (h *ContainerResourceScalingHook) Execute(goCtx context.Context, ctx *hooks.HookContext) hooks.HookResult {
	name, _, _ := h.containerName(ctx)
	logger := log.WithTarget(name)

	info, err := h.Runtime.Inspect(goCtx, name)
	if err != nil {
		return hooks.HookResult{
			Success:     false,
			Message:     fmt.Sprintf("failed to inspect container %s: %v", name, err),
			Suggestions: []string{"Verify the container exists", "Check runtime adapter availability"},
			Error:       errs.New(errs.Dependency, "container_resource_scaling", err),
		}
	}

	currentCPU := nanoCPUsToCores(info.HostConfig.NanoCpus)
	currentMemory := info.HostConfig.Memory

	h.mu.Lock()
	cpuAvg, haveCPU := h.averageLocked(h.cpuWindow, name)
	memAvg, haveMem := h.averageLocked(h.memWindow, name)
	h.mu.Unlock()

	newCPU := currentCPU
	newMemory := currentMemory
	var actions []string

	if haveCPU {
		if cpuAvg > h.CPUHighThreshold {
			if c := minF(currentCPU+h.CPUScalingIncrement, h.MaxCPULimit); c > currentCPU {
				newCPU = c
				actions = append(actions, fmt.Sprintf("increased CPU limit from %.2f to %.2f cores", currentCPU, newCPU))
			}
		} else if cpuAvg < h.CPULowThreshold {
			if c := maxF(currentCPU-h.CPUScalingIncrement, h.MinCPULimit); c < currentCPU {
				newCPU = c
				actions = append(actions, fmt.Sprintf("decreased CPU limit from %.2f to %.2f cores", currentCPU, newCPU))
			}
		}
	}

	if haveMem {
		if memAvg > h.MemoryHighThreshold {
			if m := minI(currentMemory+h.MemoryScalingIncrement, h.MaxMemoryLimit); m > currentMemory {
				newMemory = m
				actions = append(actions, fmt.Sprintf("increased memory limit from %d to %d bytes", currentMemory, newMemory))
			}
		} else if memAvg < h.MemoryLowThreshold {
			if m := maxI(currentMemory-h.MemoryScalingIncrement, h.MinMemoryLimit); m < currentMemory {
				newMemory = m
				actions = append(actions, fmt.Sprintf("decreased memory limit from %d to %d bytes", currentMemory, newMemory))
			}
		}
	}

	if len(actions) == 0 {
		return hooks.HookResult{Success: true, Message: "no scaling change needed"}
	}

	if err := h.Runtime.Update(goCtx, name, newCPU, newMemory); err != nil {
		return hooks.HookResult{
			Success:      false,
			Message:      fmt.Sprintf("failed to scale resources for container %s: %v", name, err),
			ActionsTaken: actions,
			Suggestions:  []string{"Check runtime adapter permissions", "Verify the resource values are valid"},
			Error:        errs.New(errs.Execution, "container_resource_scaling", err),
		}
	}

	h.mu.Lock()
	h.lastScaling[name] = time.Now()
	h.mu.Unlock()

	logger.Info().Strs("actions", actions).Msg("scaled container resources")

	return hooks.HookResult{
		Success:      true,
		Message:      fmt.Sprintf("successfully scaled resources for container %s", name),
		ActionsTaken: actions,
		Metrics: map[string]float64{
			"cpu_limit":    newCPU,
			"memory_limit": float64(newMemory),
		},
	}
}

func nanoCPUsToCores(nano int64) float64 {
	if nano == 0 {
		return 1.0
	}
	return float64(nano) / 1e9
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minI(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
