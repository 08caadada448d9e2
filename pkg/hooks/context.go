package hooks

import (
	"time"

	"github.com/cuemby/beacon/pkg/events"
)

// HookContext is the immutable input handed to each hook in a
// dispatch. Each hook's result is folded into a new context for the
// next hook via withResult — nothing mutates an existing HookContext
// in place.
type HookContext struct {
	TriggerEvent     *events.Event
	ProjectState     map[string]any
	SystemMetrics    map[string]any
	UserPreferences  map[string]any
	ExecutionID      string
	Timestamp        time.Time
	ExecutionHistory []HookResult
}

// withResult returns a new HookContext with result appended to
// ExecutionHistory, leaving the receiver untouched.
func (c *HookContext) withResult(result HookResult) *HookContext {
	history := make([]HookResult, len(c.ExecutionHistory), len(c.ExecutionHistory)+1)
	copy(history, c.ExecutionHistory)
	history = append(history, result)

	next := *c
	next.ExecutionHistory = history
	return &next
}
