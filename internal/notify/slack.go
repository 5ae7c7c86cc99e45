package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
	"github.com/tjharb909/FutureButNotNow/pkg/ratelimit"
)

// Status of a reported run
type Status string

const (
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
)

// Event is one operator notification
type Event struct {
	Bot      string
	Status   Status
	Message  string
	Mode     string
	Item     string
	PostText string
}

// Notifier reports run outcomes to an operator channel. Implementations
// are fire-and-forget: they must never fail the run that calls them.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Nop is a Notifier that does nothing, used when no webhook is configured
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Slack posts events to a Slack incoming webhook
type Slack struct {
	webhookURL  string
	httpClient  *http.Client
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewSlack creates a Slack notifier
func NewSlack(cfg config.SlackConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Slack {
	return &Slack{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: limiter,
		log:         log.WithComponent("notify"),
	}
}

// attachment payload in the classic Slack webhook format
type field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type attachment struct {
	Fallback string  `json:"fallback"`
	Color    string  `json:"color"`
	Fields   []field `json:"fields"`
}

// Notify sends the event. Failures are logged and swallowed.
func (s *Slack) Notify(ctx context.Context, ev Event) {
	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx, ratelimit.LimiterSlack); err != nil {
			s.log.Warn().Err(err).Msg("Slack rate limit wait failed")
			return
		}
	}

	color := "#2eb886"
	if ev.Status != StatusSuccess {
		color = "#e01e5a"
	}

	fields := []field{
		{
			Title: ev.Bot + " — " + string(ev.Status),
			Value: ev.Message + "\n" + time.Now().Format("2006-01-02 15:04:05"),
		},
	}
	if ev.Mode != "" {
		fields = append(fields, field{Title: "Mode", Value: ev.Mode, Short: true})
	}
	if ev.Item != "" {
		fields = append(fields, field{Title: "Item", Value: ev.Item})
	}
	if ev.PostText != "" {
		preview := ev.PostText
		if len(preview) > 280 {
			preview = preview[:280]
		}
		fields = append(fields, field{Title: "Post", Value: preview})
	}

	payload := map[string]interface{}{
		"attachments": []attachment{
			{
				Fallback: ev.Bot + " update: " + string(ev.Status),
				Color:    color,
				Fields:   fields,
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode Slack payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(data))
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to build Slack request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("Slack notification failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.log.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Slack returned non-OK status")
		return
	}

	s.log.Debug().Str("bot", ev.Bot).Str("status", string(ev.Status)).Msg("Slack notified")
}

// Ensure implementations satisfy Notifier
var (
	_ Notifier = (*Slack)(nil)
	_ Notifier = Nop{}
)
