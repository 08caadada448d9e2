package builtin

import (
	"context"
	"time"

	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/hooks"
	"github.com/cuemby/beacon/pkg/log"
)

// ExampleHook is a minimal reference Hook implementation: it always
// runs for its configured triggers and logs a message. Useful as a
// wiring smoke test and a template for new hooks.
type ExampleHook struct {
	Message       string
	HookTriggers  []events.Kind
	HookPriority  hooks.Priority
}

// NewExampleHook returns an ExampleHook triggered by the given event
// kinds with the default "Hello from ExampleHook!" message.
func NewExampleHook(triggers ...events.Kind) *ExampleHook {
	return &ExampleHook{
		Message:      "Hello from ExampleHook!",
		HookTriggers: triggers,
		HookPriority: hooks.PriorityLow,
	}
}

func (h *ExampleHook) ID() string                          { return "example_hook" }
func (h *ExampleHook) Name() string                        { return "Example Hook" }
func (h *ExampleHook) Description() string                 { return "Reference hook that logs a configured message" }
func (h *ExampleHook) Enabled() bool                       { return true }
func (h *ExampleHook) Priority() hooks.Priority            { return h.HookPriority }
func (h *ExampleHook) Triggers() []events.Kind             { return h.HookTriggers }
func (h *ExampleHook) Timeout() time.Duration              { return 5 * time.Second }
func (h *ExampleHook) ResourceRequirements() hooks.ResourceRequirements {
	return hooks.ResourceRequirements{CPU: 0.1, Memory: 50, Disk: 10}
}

func (h *ExampleHook) ShouldExecute(ctx *hooks.HookContext) bool {
	return hooks.TriggersEvent(h, ctx.TriggerEvent.Kind)
}

func (h *ExampleHook) Execute(goCtx context.Context, ctx *hooks.HookContext) hooks.HookResult {
	log.WithHookID(h.ID()).Info().Str("execution_id", ctx.ExecutionID).Msg(h.Message)
	return hooks.HookResult{
		Success:      true,
		Message:      h.Message,
		ActionsTaken: []string{"logged a message"},
		Suggestions:  []string{"try configuring a different message"},
	}
}
