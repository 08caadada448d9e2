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

var unhealthyStatuses = map[string]bool{
	"unhealthy": true,
	"failed":    true,
	"error":     true,
	"critical":  true,
}

// ContainerHealthRestartHook restarts containers reported unhealthy
// by a lifecycle health_status event, bounded by a per-container
// attempt limit and cooldown. Grounded on the original Python
// ContainerHealthRestartHook, adapted to the runtime.Adapter
// sub-process contract in place of ad hoc subprocess calls.
type ContainerHealthRestartHook struct {
	Runtime              runtime.Adapter
	MaxRestartAttempts   int
	RestartCooldown      time.Duration
	HealthCheckDelay     time.Duration
	NotifyOnRestart      bool
	NotifyOnFailure      bool
	ExcludedContainers   map[string]bool

	mu              sync.Mutex
	restartAttempts map[string]int
	lastRestart     map[string]time.Time
}

// NewContainerHealthRestartHook returns a hook with the original
// implementation's defaults (3 attempts, 60s cooldown, 2s post-restart
// health-check delay).
func NewContainerHealthRestartHook(adapter runtime.Adapter) *ContainerHealthRestartHook {
	return &ContainerHealthRestartHook{
		Runtime:            adapter,
		MaxRestartAttempts: 3,
		RestartCooldown:    60 * time.Second,
		HealthCheckDelay:   2 * time.Second,
		NotifyOnRestart:    true,
		NotifyOnFailure:    true,
		ExcludedContainers: map[string]bool{},
		restartAttempts:    map[string]int{},
		lastRestart:        map[string]time.Time{},
	}
}

func (h *ContainerHealthRestartHook) ID() string          { return "container_health_restart" }
func (h *ContainerHealthRestartHook) Name() string        { return "Container Health Restart" }
func (h *ContainerHealthRestartHook) Description() string {
	return "Automatically restarts containers reported unhealthy"
}
func (h *ContainerHealthRestartHook) Enabled() bool          { return true }
func (h *ContainerHealthRestartHook) Priority() hooks.Priority { return hooks.PriorityHigh }
func (h *ContainerHealthRestartHook) Triggers() []events.Kind {
	return []events.Kind{events.KindLifecycle}
}
func (h *ContainerHealthRestartHook) Timeout() time.Duration { return 10 * time.Second }
func (h *ContainerHealthRestartHook) ResourceRequirements() hooks.ResourceRequirements {
	return hooks.ResourceRequirements{CPU: 0.1, Memory: 50, Disk: 10}
}

func (h *ContainerHealthRestartHook) ShouldExecute(ctx *hooks.HookContext) bool {
	payload, ok := ctx.TriggerEvent.Payload.(events.LifecyclePayload)
	if !ok || payload.Action != events.LifecycleHealthStatus {
		return false
	}

	status, _ := ctx.TriggerEvent.Label("status")
	if !unhealthyStatuses[status] {
		return false
	}

	name := payload.ContainerName
	if h.ExcludedContainers[name] {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.restartAttempts[name] >= h.MaxRestartAttempts {
		return false
	}
	if time.Since(h.lastRestart[name]) < h.RestartCooldown {
		return false
	}
	return true
}

func (h *ContainerHealthRestartHook) Execute(goCtx context.Context, ctx *hooks.HookContext) hooks.HookResult {
	payload := ctx.TriggerEvent.Payload.(events.LifecyclePayload)
	name := payload.ContainerName
	logger := log.WithTarget(name)

	h.mu.Lock()
	h.restartAttempts[name]++
	h.lastRestart[name] = time.Now()
	attempts := h.restartAttempts[name]
	h.mu.Unlock()

	logger.Info().Int("attempt", attempts).Msg("restarting unhealthy container")

	if err := h.Runtime.Restart(goCtx, payload.ContainerID); err != nil {
		return hooks.HookResult{
			Success: false,
			Message: fmt.Sprintf("failed to restart container %s: %v", name, err),
			Suggestions: []string{
				"Check container runtime service",
				"Verify container exists",
				"Check for permission issues",
			},
			Error: errs.New(errs.Execution, "container_health_restart", err),
		}
	}

	select {
	case <-time.After(h.HealthCheckDelay):
	case <-goCtx.Done():
	}

	status := "unknown"
	if info, err := h.Runtime.Inspect(goCtx, payload.ContainerID); err == nil && info.State.Health != nil {
		status = info.State.Health.Status
	}

	if status == "healthy" {
		h.mu.Lock()
		if h.restartAttempts[name] >= h.MaxRestartAttempts {
			h.restartAttempts[name] = 0
		}
		h.mu.Unlock()
		return hooks.HookResult{
			Success:      true,
			Message:      fmt.Sprintf("successfully restarted container %s", name),
			ActionsTaken: []string{fmt.Sprintf("restarted container %s", name)},
			Metrics:      map[string]float64{"restart_attempts": float64(attempts)},
		}
	}

	return hooks.HookResult{
		Success:      false,
		Message:      fmt.Sprintf("container %s was restarted but is still unhealthy (status: %s)", name, status),
		ActionsTaken: []string{fmt.Sprintf("restarted container %s", name)},
		Suggestions: []string{
			"Check container logs for errors",
			"Verify container configuration",
			"Check dependent services",
		},
		Metrics: map[string]float64{"restart_attempts": float64(attempts)},
	}
}
