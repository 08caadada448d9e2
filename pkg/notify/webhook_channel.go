package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cuemby/beacon/pkg/alerts"
	"github.com/cuemby/beacon/pkg/errs"
)

// WebhookChannel POSTs a JSON payload to a configured URL.
type WebhookChannel struct {
	name   string
	url    string
	client *http.Client
}

func NewWebhookChannel(name, url string) *WebhookChannel {
	return &WebhookChannel{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	AlertID  string            `json:"alert_id"`
	Rule     string            `json:"rule"`
	Severity string            `json:"severity"`
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Labels   map[string]string `json:"labels,omitempty"`
}

func (c *WebhookChannel) Name() string { return c.name }

func (c *WebhookChannel) SendAlert(ctx context.Context, alert *alerts.Alert, body string) error {
	return c.post(ctx, alert, body)
}

func (c *WebhookChannel) SendResolution(ctx context.Context, alert *alerts.Alert, body string) error {
	return c.post(ctx, alert, body)
}

func (c *WebhookChannel) post(ctx context.Context, alert *alerts.Alert, body string) error {
	payload := webhookPayload{
		AlertID:  alert.AlertID,
		Rule:     alert.RuleName,
		Severity: string(alert.Severity),
		Status:   string(alert.Status),
		Message:  body,
		Labels:   alert.Labels,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return errs.New(errs.Execution, "notify.webhook.marshal", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return errs.New(errs.Network, "notify.webhook.request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errs.New(errs.Network, "notify.webhook.do", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errs.New(errs.Network, "notify.webhook.status", fmt.Errorf("webhook %s returned status %d", c.url, resp.StatusCode))
	}
	return nil
}
