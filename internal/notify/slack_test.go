package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "disabled"})
}

type webhookPayload struct {
	Attachments []struct {
		Fallback string `json:"fallback"`
		Color    string `json:"color"`
		Fields   []struct {
			Title string `json:"title"`
			Value string `json:"value"`
			Short bool   `json:"short"`
		} `json:"fields"`
	} `json:"attachments"`
}

func TestNotifySuccessPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	s := NewSlack(config.SlackConfig{WebhookURL: srv.URL}, nil, testLogger())
	s.Notify(context.Background(), Event{
		Bot:      "ProductBot",
		Status:   StatusSuccess,
		Message:  "Posted thread 111 / 222",
		Mode:     "spiky",
		Item:     "Widget Pro",
		PostText: "Hot take about widgets.",
	})

	require.Len(t, got.Attachments, 1)
	att := got.Attachments[0]
	assert.Equal(t, "#2eb886", att.Color)
	require.Len(t, att.Fields, 4)
	assert.Contains(t, att.Fields[0].Title, "ProductBot")
	assert.Contains(t, att.Fields[0].Value, "Posted thread")
	assert.Equal(t, "spiky", att.Fields[1].Value)
	assert.Equal(t, "Widget Pro", att.Fields[2].Value)
	assert.Equal(t, "Hot take about widgets.", att.Fields[3].Value)
}

func TestNotifyFailureColor(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	s := NewSlack(config.SlackConfig{WebhookURL: srv.URL}, nil, testLogger())
	s.Notify(context.Background(), Event{Bot: "TrendBot", Status: StatusFail, Message: "boom"})

	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "#e01e5a", got.Attachments[0].Color)
	require.Len(t, got.Attachments[0].Fields, 1)
}

func TestNotifySwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSlack(config.SlackConfig{WebhookURL: srv.URL}, nil, testLogger())

	// Must not panic or propagate anything
	s.Notify(context.Background(), Event{Bot: "ProductBot", Status: StatusFail, Message: "x"})
}

func TestNotifySwallowsUnreachableWebhook(t *testing.T) {
	s := NewSlack(config.SlackConfig{WebhookURL: "http://127.0.0.1:0/nope"}, nil, testLogger())
	s.Notify(context.Background(), Event{Bot: "ProductBot", Status: StatusFail, Message: "x"})
}
