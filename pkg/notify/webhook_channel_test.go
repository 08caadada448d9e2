package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/beacon/pkg/alerts"
	"github.com/cuemby/beacon/pkg/events"
)

func TestWebhookChannelPostsJSONPayload(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ch := NewWebhookChannel("hook", server.URL)
	alert := &alerts.Alert{AlertID: "a1", RuleName: "high-cpu", Severity: events.SeverityCritical}
	err := ch.SendAlert(context.Background(), alert, "cpu too high")
	require.NoError(t, err)
	assert.Equal(t, "a1", received.AlertID)
	assert.Equal(t, "cpu too high", received.Message)
}

func TestWebhookChannelErrorsOnNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ch := NewWebhookChannel("hook", server.URL)
	alert := &alerts.Alert{AlertID: "a1", RuleName: "high-cpu"}
	err := ch.SendAlert(context.Background(), alert, "body")
	assert.Error(t, err)
}

func TestLogChannelNeverFails(t *testing.T) {
	ch := NewLogChannel()
	alert := &alerts.Alert{AlertID: "a1", RuleName: "high-cpu", Severity: events.SeverityHigh}
	assert.NoError(t, ch.SendAlert(context.Background(), alert, "body"))
	assert.NoError(t, ch.SendResolution(context.Background(), alert, "body"))
}
