package rss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tjharb909/FutureButNotNow/internal/catalog"
	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

// Source implements catalog.Source for RSS feeds (news feeds or subreddit
// .rss endpoints), producing trend items for the trend bot profile.
type Source struct {
	name    string
	url     string
	scoring catalog.ScoringConfig
	parser  *gofeed.Parser
	log     *logger.Logger
}

// New creates a new RSS source for a single feed
func New(feed config.RSSFeed, scoring catalog.ScoringConfig, log *logger.Logger) *Source {
	return &Source{
		name:    feed.Name,
		url:     feed.URL,
		scoring: scoring,
		parser:  gofeed.NewParser(),
		log:     log.WithSource("rss", feed.Name),
	}
}

// NewMultiple creates multiple RSS sources from config
func NewMultiple(cfg config.RSSConfig, scoring catalog.ScoringConfig, log *logger.Logger) []*Source {
	sources := make([]*Source, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		sources = append(sources, New(feed, scoring, log))
	}
	return sources
}

// Name returns the source name
func (s *Source) Name() string {
	return s.name
}

// Type returns "rss"
func (s *Source) Type() string {
	return "rss"
}

// Fetch retrieves items from the RSS feed
func (s *Source) Fetch(ctx context.Context) ([]catalog.Item, error) {
	s.log.Debug().Str("url", s.url).Msg("Fetching RSS feed")

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", s.name, err)
	}

	items := make([]catalog.Item, 0, len(feed.Items))

	for _, item := range feed.Items {
		// Skip items older than 7 days
		if item.PublishedParsed != nil && time.Since(*item.PublishedParsed) > 7*24*time.Hour {
			continue
		}

		items = append(items, catalog.Item{
			Title:    cleanText(item.Title),
			Category: s.name,
			Keywords: item.Categories,
			URL:      item.Link,
		})
	}

	ranked := catalog.ScoreTrends(items, s.scoring)

	s.log.Info().
		Int("count", len(ranked)).
		Str("feed", s.name).
		Msg("Fetched RSS trends")

	return ranked, nil
}

// HealthCheck verifies the RSS feed is accessible
func (s *Source) HealthCheck(ctx context.Context) error {
	_, err := s.parser.ParseURLWithContext(s.url, ctx)
	return err
}

// cleanText removes HTML tags and extra whitespace
func cleanText(text string) string {
	// Remove HTML tags (simple approach)
	text = strings.ReplaceAll(text, "<br>", " ")
	text = strings.ReplaceAll(text, "<br/>", " ")
	text = strings.ReplaceAll(text, "<br />", " ")
	text = strings.ReplaceAll(text, "</p>", " ")
	text = strings.ReplaceAll(text, "<p>", "")

	// Remove remaining HTML tags
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
		} else if r == '>' {
			inTag = false
		} else if !inTag {
			result.WriteRune(r)
		}
	}

	// Clean up whitespace
	text = result.String()
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimSpace(text)
}

// Ensure Source implements catalog.Source
var _ catalog.Source = (*Source)(nil)
