package notify

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/beacon/pkg/alerts"
	"github.com/cuemby/beacon/pkg/log"
)

// Router implements alerts.Notifier. It owns the registered channels,
// the routing rules that select among them, and the template set used
// to render each channel's message body.
type Router struct {
	templates     *TemplateSet
	retryAttempts int
	retryDelay    time.Duration

	mu       sync.Mutex
	channels map[string]Channel
	rules    []*RoutingRule
}

// NewRouter builds a Router. retryAttempts < 1 is treated as 1 (a
// single send, no retry); templates may be nil, in which case every
// alert falls back to a built-in plain-text body.
func NewRouter(templates *TemplateSet, retryAttempts int, retryDelay time.Duration) *Router {
	if templates == nil {
		templates = NewTemplateSet()
	}
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Router{
		templates:     templates,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
		channels:      make(map[string]Channel),
	}
}

func (r *Router) RegisterChannel(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.Name()] = ch
}

// AddRule compiles and appends a routing rule. Rules are evaluated in
// the order added; every matching rule contributes its channels to
// the union.
func (r *Router) AddRule(rule *RoutingRule) error {
	if err := rule.compile(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule)
	return nil
}

// Notify implements alerts.Notifier. A silenced alert short-circuits
// routing entirely: no channel is contacted. Otherwise it resolves the
// channel set and template, then dispatches to each matched channel
// concurrently — one channel's failure, after exhausting retries,
// never prevents another channel from being attempted or recorded.
func (r *Router) Notify(ctx context.Context, alert *alerts.Alert, kind alerts.NotifyKind) {
	if alert.Status == alerts.StatusSilenced {
		return
	}

	channels, template := r.resolve(alert)
	if len(channels) == 0 {
		return
	}

	resolved := kind == alerts.NotifyResolved
	body, err := r.templates.render(template, alert, resolved)
	if err != nil {
		log.WithComponent("notify").Error().Err(err).Str("alert_id", alert.AlertID).Msg("failed to render notification template")
		body = fallbackBody(alert, resolved)
	}

	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			r.send(ctx, ch, alert, body, resolved)
		}(ch)
	}
	wg.Wait()
}

// resolve returns the deduplicated union of channels selected by every
// matching routing rule (falling back to all registered channels when
// none match) and the template name from the first matching rule that
// names one.
func (r *Router) resolve(alert *alerts.Alert) ([]Channel, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	var selected []Channel
	var template string
	matchedAny := false

	for _, rule := range r.rules {
		if !rule.matches(alert) {
			continue
		}
		matchedAny = true
		if template == "" && rule.Template != "" {
			template = rule.Template
		}
		for _, name := range rule.Channels {
			if _, ok := seen[name]; ok {
				continue
			}
			ch, ok := r.channels[name]
			if !ok {
				continue
			}
			seen[name] = struct{}{}
			selected = append(selected, ch)
		}
	}

	if matchedAny {
		return selected, template
	}

	all := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		all = append(all, ch)
	}
	return all, template
}

func (r *Router) send(ctx context.Context, ch Channel, alert *alerts.Alert, body string, resolved bool) {
	var lastErr error
	for attempt := 1; attempt <= r.retryAttempts; attempt++ {
		if resolved {
			lastErr = ch.SendResolution(ctx, alert, body)
		} else {
			lastErr = ch.SendAlert(ctx, alert, body)
		}
		if lastErr == nil {
			alert.RecordNotification(ch.Name(), true, time.Now())
			return
		}
		if attempt < r.retryAttempts {
			select {
			case <-time.After(r.retryDelay):
			case <-ctx.Done():
				alert.RecordNotification(ch.Name(), false, time.Now())
				return
			}
		}
	}
	log.WithComponent("notify").Warn().Err(lastErr).Str("channel", ch.Name()).Str("alert_id", alert.AlertID).Msg("notification channel exhausted retries")
	alert.RecordNotification(ch.Name(), false, time.Now())
}
