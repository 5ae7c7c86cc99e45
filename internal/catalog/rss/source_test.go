package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjharb909/FutureButNotNow/internal/catalog"
	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "disabled"})
}

func serveFeed(t *testing.T, xml string) *Source {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(xml))
	}))
	t.Cleanup(srv.Close)

	return New(config.RSSFeed{Name: "testfeed", URL: srv.URL},
		catalog.ScoringConfig{ViralKeywords: []string{"leak"}, MaxItems: 10},
		testLogger())
}

func feedXML(items string) string {
	return `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test</title>` + items + `</channel></rss>`
}

func TestFetchParsesFeed(t *testing.T) {
	now := time.Now().Format(time.RFC1123Z)
	s := serveFeed(t, feedXML(fmt.Sprintf(`
<item><title>Huge leak in the sector</title><link>https://example.com/1</link><pubDate>%s</pubDate></item>
<item><title>Quiet ordinary day</title><link>https://example.com/2</link><pubDate>%s</pubDate></item>
`, now, now)))

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Keyword-scored item ranks first
	assert.Equal(t, "Huge leak in the sector", items[0].Title)
	assert.Equal(t, "https://example.com/1", items[0].URL)
	assert.Equal(t, "testfeed", items[0].Category)
}

func TestFetchSkipsStaleItems(t *testing.T) {
	old := time.Now().Add(-8 * 24 * time.Hour).Format(time.RFC1123Z)
	fresh := time.Now().Format(time.RFC1123Z)
	s := serveFeed(t, feedXML(fmt.Sprintf(`
<item><title>Ancient story nobody cares about</title><pubDate>%s</pubDate></item>
<item><title>Fresh story from today</title><pubDate>%s</pubDate></item>
`, old, fresh)))

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fresh story from today", items[0].Title)
}

func TestFetchBadFeed(t *testing.T) {
	s := serveFeed(t, "this is not xml")
	_, err := s.Fetch(context.Background())
	require.Error(t, err)
}

func TestNewMultiple(t *testing.T) {
	sources := NewMultiple(config.RSSConfig{Feeds: []config.RSSFeed{
		{Name: "a", URL: "https://example.com/a.xml"},
		{Name: "b", URL: "https://example.com/b.xml"},
	}}, catalog.ScoringConfig{}, testLogger())

	require.Len(t, sources, 2)
	assert.Equal(t, "a", sources[0].Name())
	assert.Equal(t, "rss", sources[0].Type())
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Hello world", cleanText("<p>Hello<br>world</p>"))
	assert.Equal(t, "Plain title", cleanText("  Plain   title "))
	assert.Equal(t, "Linked", cleanText(`<a href="x">Linked</a>`))
}
