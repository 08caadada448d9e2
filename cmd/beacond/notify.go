package main

import (
	"fmt"
	"net/smtp"

	"github.com/cuemby/beacon/pkg/config"
	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/notify"
)

// buildNotifyRouter assembles a notify.Router from the notifications
// section of cfg: one channel per configured entry, plus a routing
// rule per configured entry. A log channel is always registered so an
// operator with no notifications.channels configured still sees
// alerts surface somewhere.
func buildNotifyRouter(cfg *config.Config) (*notify.Router, error) {
	router := notify.NewRouter(notify.NewTemplateSet(), 3, 0)
	router.RegisterChannel(notify.NewLogChannel())

	for _, ch := range cfg.Notifications.Channels {
		if !ch.Enabled {
			continue
		}
		channel, err := buildChannel(ch)
		if err != nil {
			return nil, err
		}
		router.RegisterChannel(channel)
	}

	for _, rt := range cfg.Notifications.Routing {
		rule := &notify.RoutingRule{
			Severities:   toSeverities(rt.Severities),
			LabelEquals:  rt.LabelEquals,
			RuleNameGlob: rt.RuleNameGlob,
			Channels:     rt.Channels,
			Template:     rt.Template,
		}
		if err := router.AddRule(rule); err != nil {
			return nil, err
		}
	}

	return router, nil
}

func buildChannel(ch config.ChannelConfig) (notify.Channel, error) {
	switch ch.Type {
	case "webhook":
		url, _ := ch.Parameters["url"].(string)
		if url == "" {
			return nil, errs.New(errs.Configuration, "beacond.notify.webhook", fmt.Errorf("channel %q missing parameters.url", ch.Name))
		}
		return notify.NewWebhookChannel(ch.Name, url), nil
	case "slack":
		token, _ := ch.Parameters["token"].(string)
		channelID, _ := ch.Parameters["channel_id"].(string)
		if token == "" || channelID == "" {
			return nil, errs.New(errs.Configuration, "beacond.notify.slack", fmt.Errorf("channel %q requires parameters.token and parameters.channel_id", ch.Name))
		}
		return notify.NewSlackChannel(ch.Name, token, channelID), nil
	case "email":
		addr, _ := ch.Parameters["addr"].(string)
		from, _ := ch.Parameters["from"].(string)
		to, _ := toStringSlice(ch.Parameters["to"])
		if addr == "" || from == "" || len(to) == 0 {
			return nil, errs.New(errs.Configuration, "beacond.notify.email", fmt.Errorf("channel %q requires parameters.addr, from, and to", ch.Name))
		}
		var auth smtp.Auth
		if user, ok := ch.Parameters["username"].(string); ok {
			if pass, ok := ch.Parameters["password"].(string); ok {
				host, _ := ch.Parameters["host"].(string)
				auth = smtp.PlainAuth("", user, pass, host)
			}
		}
		return notify.NewEmailChannel(ch.Name, addr, from, to, auth), nil
	case "log", "":
		return notify.NewLogChannel(), nil
	default:
		return nil, errs.New(errs.Configuration, "beacond.notify.channel_type", fmt.Errorf("channel %q has unknown type %q", ch.Name, ch.Type))
	}
}

func toStringSlice(v interface{}) ([]string, bool) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func toSeverities(names []string) []events.Severity {
	out := make([]events.Severity, 0, len(names))
	for _, n := range names {
		out = append(out, events.Severity(n))
	}
	return out
}
