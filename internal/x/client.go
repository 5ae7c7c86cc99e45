package x

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
	"github.com/tjharb909/FutureButNotNow/pkg/ratelimit"
)

const (
	defaultAPIBaseURL    = "https://api.twitter.com"
	defaultUploadBaseURL = "https://upload.twitter.com"
)

// Metrics holds the public engagement counters of one post
type Metrics struct {
	Likes   int
	Replies int
	Reposts int
	Quotes  int
}

// Client handles X API v2 requests (plus the v1.1 media upload endpoint)
type Client struct {
	httpClient    *http.Client
	apiBaseURL    string
	uploadBaseURL string
	rateLimiter   *ratelimit.MultiLimiter
	log           *logger.Logger
}

// NewClient creates a new X API client authenticated with the configured
// user-context bearer token
func NewClient(cfg config.XConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		httpClient:    httpClient,
		apiBaseURL:    defaultAPIBaseURL,
		uploadBaseURL: defaultUploadBaseURL,
		rateLimiter:   limiter,
		log:           log.WithComponent("x"),
	}
}

// SetBaseURLs overrides the API endpoints, used by tests
func (c *Client) SetBaseURLs(api, upload string) {
	c.apiBaseURL = api
	c.uploadBaseURL = upload
}

// do performs a JSON API request with rate limiting
func (c *Client) do(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterX); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug().
		Str("method", method).
		Str("url", url).
		Msg("Making X API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Msg("X API response")

	return resp, nil
}

// createTweetRequest is the POST /2/tweets payload
type createTweetRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
	Media *struct {
		MediaIDs []string `json:"media_ids"`
	} `json:"media,omitempty"`
}

// CreatePost publishes a standalone post and returns its ID
func (c *Client) CreatePost(ctx context.Context, text string) (string, error) {
	return c.createTweet(ctx, createTweetRequest{Text: text})
}

// Reply publishes a reply to an existing post, optionally with media
func (c *Client) Reply(ctx context.Context, text, inReplyTo string, mediaIDs ...string) (string, error) {
	req := createTweetRequest{Text: text}
	req.Reply = &struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	}{InReplyToTweetID: inReplyTo}
	if len(mediaIDs) > 0 {
		req.Media = &struct {
			MediaIDs []string `json:"media_ids"`
		}{MediaIDs: mediaIDs}
	}
	return c.createTweet(ctx, req)
}

func (c *Client) createTweet(ctx context.Context, payload createTweetRequest) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.apiBaseURL+"/2/tweets", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("create post failed: %s - %s", resp.Status, string(body))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode create post response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("create post response missing id")
	}

	c.log.Info().Str("post_id", result.Data.ID).Msg("Post created")
	return result.Data.ID, nil
}

// UploadMedia uploads an image via the v1.1 endpoint and returns the
// media ID usable in a subsequent post
func (c *Client) UploadMedia(ctx context.Context, path string) (string, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterX); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read media file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBaseURL+"/1.1/media/upload.json", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("media upload failed: %s - %s", resp.Status, string(body))
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode media upload response: %w", err)
	}

	c.log.Info().Str("media_id", result.MediaIDString).Msg("Media uploaded")
	return result.MediaIDString, nil
}

// GetMetrics fetches public metrics for up to 100 post IDs per request,
// chunking as needed. Unknown/deleted IDs are simply absent from the map.
func (c *Client) GetMetrics(ctx context.Context, ids []string) (map[string]Metrics, error) {
	out := make(map[string]Metrics, len(ids))

	for start := 0; start < len(ids); start += 100 {
		end := start + 100
		if end > len(ids) {
			end = len(ids)
		}

		url := fmt.Sprintf("%s/2/tweets?ids=%s&tweet.fields=public_metrics",
			c.apiBaseURL, strings.Join(ids[start:end], ","))

		resp, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		var result struct {
			Data []struct {
				ID            string `json:"id"`
				PublicMetrics struct {
					LikeCount    int `json:"like_count"`
					ReplyCount   int `json:"reply_count"`
					RetweetCount int `json:"retweet_count"`
					QuoteCount   int `json:"quote_count"`
				} `json:"public_metrics"`
			} `json:"data"`
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("fetch metrics failed: %s - %s", resp.Status, string(body))
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to decode metrics response: %w", err)
		}
		resp.Body.Close()

		for _, t := range result.Data {
			out[t.ID] = Metrics{
				Likes:   t.PublicMetrics.LikeCount,
				Replies: t.PublicMetrics.ReplyCount,
				Reposts: t.PublicMetrics.RetweetCount,
				Quotes:  t.PublicMetrics.QuoteCount,
			}
		}
	}

	return out, nil
}
