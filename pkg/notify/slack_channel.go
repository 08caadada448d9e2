package notify

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/cuemby/beacon/pkg/alerts"
	"github.com/cuemby/beacon/pkg/errs"
)

// SlackChannel posts a message to a Slack channel via a bot token.
type SlackChannel struct {
	name      string
	client    *slack.Client
	channelID string
}

func NewSlackChannel(name, token, channelID string) *SlackChannel {
	return &SlackChannel{name: name, client: slack.New(token), channelID: channelID}
}

func (c *SlackChannel) Name() string { return c.name }

func (c *SlackChannel) SendAlert(ctx context.Context, alert *alerts.Alert, body string) error {
	return c.post(ctx, body)
}

func (c *SlackChannel) SendResolution(ctx context.Context, alert *alerts.Alert, body string) error {
	return c.post(ctx, body)
}

func (c *SlackChannel) post(ctx context.Context, body string) error {
	_, _, err := c.client.PostMessageContext(ctx, c.channelID, slack.MsgOptionText(body, false))
	if err != nil {
		return errs.New(errs.Network, "notify.slack.post_message", err)
	}
	return nil
}
