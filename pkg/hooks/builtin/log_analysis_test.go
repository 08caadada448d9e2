package builtin

import (
	"context"
	"testing"

	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAnalysisHookMatchesPattern(t *testing.T) {
	h := NewContainerLogAnalysisHook()
	ctx := &hooks.HookContext{TriggerEvent: &events.Event{
		Kind: events.KindLogPattern,
		Payload: events.LogPatternPayload{
			ContainerID: "c1",
			Line:        "Out of memory: Killed process 1234",
			MatchCount:  1,
		},
	}}

	require.True(t, h.ShouldExecute(ctx))
	result := h.Execute(context.Background(), ctx)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "oom_kill")
}

func TestLogAnalysisHookNoMatch(t *testing.T) {
	h := NewContainerLogAnalysisHook()
	ctx := &hooks.HookContext{TriggerEvent: &events.Event{
		Kind:    events.KindLogPattern,
		Payload: events.LogPatternPayload{ContainerID: "c1", Line: "request completed in 12ms"},
	}}
	assert.False(t, h.ShouldExecute(ctx))
}

func TestLogAnalysisHookCooldownSuppressesRetrigger(t *testing.T) {
	h := NewContainerLogAnalysisHook()
	event := &events.Event{
		Kind: events.KindLogPattern,
		Payload: events.LogPatternPayload{
			ContainerID: "c1",
			Line:        "panic: runtime error",
		},
	}
	ctx := &hooks.HookContext{TriggerEvent: event}

	require.True(t, h.ShouldExecute(ctx))
	h.Execute(context.Background(), ctx)

	assert.False(t, h.ShouldExecute(ctx))
}
