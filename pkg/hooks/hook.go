package hooks

import (
	"context"
	"time"

	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/events"
)

// Priority ranks hook execution order when the dependency DAG leaves
// a tie. Lower values run first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// ResourceRequirements describes the resources a hook expects to use
// while executing, for capacity planning and reporting.
type ResourceRequirements struct {
	CPU     float64
	Memory  float64
	Disk    float64
	Network bool
}

// Hook is a single unit of event-triggered automation.
type Hook interface {
	ID() string
	Name() string
	Description() string
	Enabled() bool
	Priority() Priority
	Triggers() []events.Kind
	Timeout() time.Duration
	ResourceRequirements() ResourceRequirements

	// ShouldExecute reports whether the hook wants to run against ctx.
	// Implementations must not block for long; any panic is recovered
	// by the dispatcher and treated as false.
	ShouldExecute(ctx *HookContext) bool

	// Execute performs the hook's action. It is run under a deadline
	// derived from Timeout and must respect goCtx's cancellation.
	Execute(goCtx context.Context, ctx *HookContext) HookResult
}

// HookResult is the outcome of a single hook execution.
type HookResult struct {
	HookID          string
	Success         bool
	Message         string
	ActionsTaken    []string
	Suggestions     []string
	Metrics         map[string]float64
	ExecutionTimeMs float64
	Error           *errs.Error
}

// TriggersEvent reports whether kind is among the hook's trigger set.
func TriggersEvent(h Hook, kind events.Kind) bool {
	for _, k := range h.Triggers() {
		if k == kind {
			return true
		}
	}
	return false
}
