package notify

import (
	"context"

	"github.com/cuemby/beacon/pkg/alerts"
	"github.com/cuemby/beacon/pkg/log"
)

// LogChannel writes notifications through the structured logger. It
// never fails, which makes it a reasonable default/fallback channel
// for routing rules that name no others.
type LogChannel struct {
	name string
}

func NewLogChannel() *LogChannel {
	return &LogChannel{name: "log"}
}

func (c *LogChannel) Name() string { return c.name }

func (c *LogChannel) SendAlert(_ context.Context, alert *alerts.Alert, body string) error {
	log.WithComponent("notify.log").Warn().
		Str("alert_id", alert.AlertID).
		Str("rule", alert.RuleName).
		Str("severity", string(alert.Severity)).
		Msg(body)
	return nil
}

func (c *LogChannel) SendResolution(_ context.Context, alert *alerts.Alert, body string) error {
	log.WithComponent("notify.log").Info().
		Str("alert_id", alert.AlertID).
		Str("rule", alert.RuleName).
		Msg(body)
	return nil
}
