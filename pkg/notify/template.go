package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/cuemby/beacon/pkg/alerts"
)

// templateData is what a notification template renders against.
type templateData struct {
	Alert    *alerts.Alert
	Resolved bool
}

// TemplateSet holds the named text/template bodies a Router selects
// from: a rule-specific template (keyed by its own name), a
// default_<severity> fallback, and the final "default" catch-all.
type TemplateSet struct {
	templates map[string]*template.Template
}

func NewTemplateSet() *TemplateSet {
	return &TemplateSet{templates: make(map[string]*template.Template)}
}

// Add compiles and registers a template body under name. The default
// catch-all must be registered as "default"; severity fallbacks as
// "default_<severity>" (e.g. "default_critical").
func (t *TemplateSet) Add(name, body string) error {
	tmpl, err := template.New(name).Parse(body)
	if err != nil {
		return fmt.Errorf("notify: parse template %q: %w", name, err)
	}
	t.templates[name] = tmpl
	return nil
}

func (t *TemplateSet) has(name string) bool {
	_, ok := t.templates[name]
	return ok
}

// render picks ruleTemplate if set and registered, else
// default_<severity>, else "default", and executes it against alert.
func (t *TemplateSet) render(ruleTemplate string, alert *alerts.Alert, resolved bool) (string, error) {
	name := t.resolveName(ruleTemplate, alert)
	tmpl, ok := t.templates[name]
	if !ok {
		return fallbackBody(alert, resolved), nil
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{Alert: alert, Resolved: resolved}); err != nil {
		return "", fmt.Errorf("notify: render template %q: %w", name, err)
	}
	return buf.String(), nil
}

func (t *TemplateSet) resolveName(ruleTemplate string, alert *alerts.Alert) string {
	if ruleTemplate != "" && t.has(ruleTemplate) {
		return ruleTemplate
	}
	bySeverity := "default_" + string(alert.Severity)
	if t.has(bySeverity) {
		return bySeverity
	}
	return "default"
}

func fallbackBody(alert *alerts.Alert, resolved bool) string {
	if resolved {
		return fmt.Sprintf("[RESOLVED] %s: %s", alert.RuleName, alert.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", alert.Severity, alert.RuleName, alert.Message)
}
