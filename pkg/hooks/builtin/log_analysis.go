package builtin

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/hooks"
	"github.com/cuemby/beacon/pkg/log"
)

// LogPattern is a compiled regular expression the log analysis hook
// watches for, with its own per-container cooldown.
type LogPattern struct {
	Name        string
	Regexp      *regexp.Regexp
	Severity    events.Severity
	Description string
	Cooldown    time.Duration

	mu            sync.Mutex
	lastTriggered map[string]time.Time
}

// NewLogPattern compiles pattern and returns a LogPattern ready to
// register with a ContainerLogAnalysisHook.
func NewLogPattern(name, pattern string, severity events.Severity, description string, cooldown time.Duration) *LogPattern {
	return &LogPattern{
		Name:          name,
		Regexp:        regexp.MustCompile(pattern),
		Severity:      severity,
		Description:   description,
		Cooldown:      cooldown,
		lastTriggered: map[string]time.Time{},
	}
}

func (p *LogPattern) canTrigger(container string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Since(p.lastTriggered[container]) >= p.Cooldown
}

func (p *LogPattern) markTriggered(container string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastTriggered[container] = time.Now()
}

// DefaultLogPatterns mirrors the original implementation's built-in
// pattern set: out-of-memory kills, panics/fatal errors, and
// connection-refused loops.
func DefaultLogPatterns() []*LogPattern {
	return []*LogPattern{
		NewLogPattern("oom_kill", `(?i)out of memory|oom-?killer|killed process`, events.SeverityCritical,
			"container process was killed for exhausting memory", 5*time.Minute),
		NewLogPattern("panic_fatal", `(?i)panic:|fatal error:|segmentation fault`, events.SeverityHigh,
			"application panicked or crashed", 5*time.Minute),
		NewLogPattern("connection_refused", `(?i)connection refused|econnrefused`, events.SeverityMedium,
			"repeated downstream connection failures", 10*time.Minute),
	}
}

// ContainerLogAnalysisHook scans KindLogPattern events against a
// registered set of LogPatterns and reports matches, applying a
// per-pattern, per-container cooldown so the same recurring line
// doesn't re-trigger on every occurrence. Grounded on the original
// ContainerLogAnalysisHook's LogPattern/cooldown design.
type ContainerLogAnalysisHook struct {
	Patterns []*LogPattern
}

// NewContainerLogAnalysisHook returns a hook watching patterns, or
// DefaultLogPatterns() if patterns is empty.
func NewContainerLogAnalysisHook(patterns ...*LogPattern) *ContainerLogAnalysisHook {
	if len(patterns) == 0 {
		patterns = DefaultLogPatterns()
	}
	return &ContainerLogAnalysisHook{Patterns: patterns}
}

func (h *ContainerLogAnalysisHook) ID() string          { return "container_log_analysis" }
func (h *ContainerLogAnalysisHook) Name() string        { return "Container Log Analysis" }
func (h *ContainerLogAnalysisHook) Description() string {
	return "Scans container log lines for known error patterns"
}
func (h *ContainerLogAnalysisHook) Enabled() bool            { return true }
func (h *ContainerLogAnalysisHook) Priority() hooks.Priority { return hooks.PriorityNormal }
func (h *ContainerLogAnalysisHook) Triggers() []events.Kind {
	return []events.Kind{events.KindLogPattern}
}
func (h *ContainerLogAnalysisHook) Timeout() time.Duration { return 5 * time.Second }
func (h *ContainerLogAnalysisHook) ResourceRequirements() hooks.ResourceRequirements {
	return hooks.ResourceRequirements{CPU: 0.05, Memory: 20, Disk: 0}
}

func (h *ContainerLogAnalysisHook) matchingPattern(ctx *hooks.HookContext) (*LogPattern, events.LogPatternPayload, bool) {
	payload, ok := ctx.TriggerEvent.Payload.(events.LogPatternPayload)
	if !ok {
		return nil, events.LogPatternPayload{}, false
	}
	for _, p := range h.Patterns {
		if p.Regexp.MatchString(payload.Line) && p.canTrigger(payload.ContainerID) {
			return p, payload, true
		}
	}
	return nil, payload, false
}

func (h *ContainerLogAnalysisHook) ShouldExecute(ctx *hooks.HookContext) bool {
	_, _, ok := h.matchingPattern(ctx)
	return ok
}

func (h *ContainerLogAnalysisHook) Execute(goCtx context.Context, ctx *hooks.HookContext) hooks.HookResult {
	pattern, payload, ok := h.matchingPattern(ctx)
	if !ok {
		return hooks.HookResult{Success: true, Message: "no pattern matched"}
	}
	pattern.markTriggered(payload.ContainerID)

	log.WithTarget(payload.ContainerID).Warn().
		Str("pattern", pattern.Name).
		Str("line", payload.Line).
		Msg("log pattern matched")

	return hooks.HookResult{
		Success: true,
		Message: fmt.Sprintf("log pattern %q matched on container %s: %s", pattern.Name, payload.ContainerID, pattern.Description),
		ActionsTaken: []string{
			fmt.Sprintf("recorded match for pattern %s", pattern.Name),
		},
		Suggestions: []string{
			"Inspect the container's full log output",
			"Correlate with recent deploys or config changes",
		},
		Metrics: map[string]float64{"match_count": float64(payload.MatchCount)},
	}
}
