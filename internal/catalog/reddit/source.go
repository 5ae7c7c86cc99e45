package reddit

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/tjharb909/FutureButNotNow/internal/catalog"
	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
	"github.com/tjharb909/FutureButNotNow/pkg/ratelimit"
)

const defaultBaseURL = "https://www.reddit.com"

// boringPrefixes are title prefixes that never make usable trends
var boringPrefixes = []string{"til", "meirl", "oc", "ama"}

// Source implements catalog.Source over the public Reddit JSON listing API
type Source struct {
	client    *resty.Client
	subreddit string
	limit     int
	scoring   catalog.ScoringConfig
	limiter   *ratelimit.MultiLimiter
	log       *logger.Logger
}

// New creates a new Reddit trend source
func New(cfg config.RedditConfig, scoring catalog.ScoringConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Source {
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("User-Agent", cfg.UserAgent)

	return &Source{
		client:    client,
		subreddit: cfg.Subreddit,
		limit:     cfg.Limit,
		scoring:   scoring,
		limiter:   limiter,
		log:       log.WithSource("reddit", cfg.Subreddit),
	}
}

// SetBaseURL overrides the API endpoint, used by tests
func (s *Source) SetBaseURL(url string) {
	s.client.SetBaseURL(url)
}

// Name returns the source name
func (s *Source) Name() string {
	return "reddit-" + s.subreddit
}

// Type returns "reddit"
func (s *Source) Type() string {
	return "reddit"
}

// listing mirrors the slice of the Reddit listing response we consume
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Permalink string `json:"permalink"`
				Subreddit string `json:"subreddit"`
				Stickied  bool   `json:"stickied"`
				Over18    bool   `json:"over_18"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch retrieves hot posts and ranks them as trend items
func (s *Source) Fetch(ctx context.Context) ([]catalog.Item, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, ratelimit.LimiterReddit); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}
	}

	var page listing
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", s.limit)).
		SetResult(&page).
		Get(fmt.Sprintf("/r/%s/hot.json", s.subreddit))
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s: %w", s.subreddit, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch r/%s: unexpected status %s", s.subreddit, resp.Status())
	}

	seen := make(map[string]struct{})
	var items []catalog.Item
	for _, child := range page.Data.Children {
		post := child.Data
		if post.Stickied || post.Over18 {
			continue
		}
		title := strings.TrimSpace(post.Title)
		if title == "" || hasBoringPrefix(title) {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}

		items = append(items, catalog.Item{
			Title:    title,
			Category: post.Subreddit,
			URL:      defaultBaseURL + post.Permalink,
		})
	}

	ranked := catalog.ScoreTrends(items, s.scoring)

	s.log.Info().
		Int("fetched", len(page.Data.Children)).
		Int("ranked", len(ranked)).
		Msg("Fetched Reddit trends")

	return ranked, nil
}

// HealthCheck verifies the listing endpoint responds
func (s *Source) HealthCheck(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("limit", "1").
		Get(fmt.Sprintf("/r/%s/hot.json", s.subreddit))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("reddit health check: %s", resp.Status())
	}
	return nil
}

// hasBoringPrefix matches whole leading words only, so "TIL that" is
// boring but "Tilapia farming" is not
func hasBoringPrefix(title string) bool {
	lower := strings.ToLower(title)
	for _, p := range boringPrefixes {
		if lower == p || strings.HasPrefix(lower, p+" ") || strings.HasPrefix(lower, p+":") {
			return true
		}
	}
	return false
}

// Ensure Source implements catalog.Source
var _ catalog.Source = (*Source)(nil)
