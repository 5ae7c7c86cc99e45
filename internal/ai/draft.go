package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tjharb909/FutureButNotNow/internal/catalog"
)

// Draft is the structured copy for one thread: a link-free opener and a
// reply that will carry the link and hashtags.
type Draft struct {
	Primary  string
	Reply    string
	Hashtags []string
}

// ParseError reports model output that could not be validated into a
// Draft. The orchestrator treats it as a generation failure.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	preview := e.Raw
	if len(preview) > 220 {
		preview = preview[:220]
	}
	return fmt.Sprintf("draft parse failed: %s | raw: %s", e.Reason, preview)
}

// GenerateDraft asks Claude for copy in the given mode and validates the
// response. An unknown mode means a deployment bug: the bandit arm set
// must match the prompt templates.
func (c *Client) GenerateDraft(ctx context.Context, mode string, item catalog.Item) (*Draft, error) {
	prompt, err := buildPrompt(mode, item)
	if err != nil {
		return nil, err
	}

	system := fmt.Sprintf(DraftSystemPrompt, PrimaryMaxLen, ReplyMaxLen)
	raw, err := c.CompleteWithJSON(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	draft, err := ParseDraft(raw)
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("mode", mode).
		Str("item", item.Title).
		Int("primary_len", len(draft.Primary)).
		Int("reply_len", len(draft.Reply)).
		Msg("Draft generated")

	return draft, nil
}

// buildPrompt resolves the mode's template against the item
func buildPrompt(mode string, item catalog.Item) (string, error) {
	if tpl, ok := productModePrompts[mode]; ok {
		return fmt.Sprintf(tpl,
			item.Title,
			orDefault(item.Category, "general"),
			orDefault(strings.Join(item.Benefits, ", "), "n/a"),
			orDefault(item.PriceAnchor, "n/a"),
		), nil
	}
	if tpl, ok := trendModePrompts[mode]; ok {
		return fmt.Sprintf(tpl, item.Title, orDefault(item.Category, "unknown")), nil
	}
	return "", fmt.Errorf("no prompt template for mode %q", mode)
}

// ParseDraft validates raw model output into a Draft. Length limits are
// enforced by truncation rather than rejection; a post cut one character
// short still beats a wasted run.
func ParseDraft(raw string) (*Draft, error) {
	cleaned := stripCodeFences(raw)

	var payload struct {
		Primary  string   `json:"primary"`
		Reply    string   `json:"reply"`
		Hashtags []string `json:"hashtags"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, &ParseError{Raw: raw, Reason: err.Error()}
	}

	primary := strings.TrimSpace(payload.Primary)
	reply := strings.TrimSpace(payload.Reply)
	if primary == "" {
		return nil, &ParseError{Raw: raw, Reason: "missing primary"}
	}
	if reply == "" {
		return nil, &ParseError{Raw: raw, Reason: "missing reply"}
	}

	tags := make([]string, 0, MaxHashtags)
	for _, t := range payload.Hashtags {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		tags = append(tags, t)
		if len(tags) == MaxHashtags {
			break
		}
	}

	return &Draft{
		Primary:  Truncate(primary, PrimaryMaxLen),
		Reply:    Truncate(reply, ReplyMaxLen),
		Hashtags: tags,
	}, nil
}

// Truncate clamps s to max characters, ending with an ellipsis when cut
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// stripCodeFences removes a markdown fence the model sometimes wraps
// around the JSON despite instructions
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
