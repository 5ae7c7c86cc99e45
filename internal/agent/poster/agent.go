// Package poster runs one end-to-end posting cycle: select a content
// mode and an unused catalog item, generate copy, publish the thread,
// and record the outcome.
package poster

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tjharb909/FutureButNotNow/internal/ai"
	"github.com/tjharb909/FutureButNotNow/internal/bandit"
	"github.com/tjharb909/FutureButNotNow/internal/catalog"
	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/internal/ledger"
	"github.com/tjharb909/FutureButNotNow/internal/models"
	"github.com/tjharb909/FutureButNotNow/internal/notify"
	"github.com/tjharb909/FutureButNotNow/internal/storage"
	"github.com/tjharb909/FutureButNotNow/internal/tracker"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

// Generator produces draft copy for a (mode, item) pair
type Generator interface {
	GenerateDraft(ctx context.Context, mode string, item catalog.Item) (*ai.Draft, error)
}

// Publisher posts threads to the social platform
type Publisher interface {
	CreatePost(ctx context.Context, text string) (string, error)
	Reply(ctx context.Context, text, inReplyTo string, mediaIDs ...string) (string, error)
	UploadMedia(ctx context.Context, path string) (string, error)
}

// Agent orchestrates one posting run
type Agent struct {
	botName   string
	profile   string
	source    catalog.Source
	ledger    *ledger.Ledger
	bandit    *bandit.Selector
	epsilon   float64
	generator Generator
	publisher Publisher
	repo      storage.Repository
	tracker   *tracker.SheetsTracker
	notifier  notify.Notifier
	affiliate config.AffiliateConfig
	reward    config.RewardConfig
	media     bool
	log       *logger.Logger
}

// NewAgent creates a new poster agent
func NewAgent(
	cfg *config.Config,
	source catalog.Source,
	ldg *ledger.Ledger,
	sel *bandit.Selector,
	generator Generator,
	publisher Publisher,
	repo storage.Repository,
	sheetTracker *tracker.SheetsTracker,
	notifier notify.Notifier,
	log *logger.Logger,
) *Agent {
	return &Agent{
		botName:   cfg.Bot.Name,
		profile:   cfg.Bot.Profile,
		source:    source,
		ledger:    ldg,
		bandit:    sel,
		epsilon:   cfg.Bandit.Epsilon,
		generator: generator,
		publisher: publisher,
		repo:      repo,
		tracker:   sheetTracker,
		notifier:  notifier,
		affiliate: cfg.Affiliate,
		reward:    cfg.Reward,
		media:     cfg.X.UploadMedia,
		log:       log.WithComponent("poster").WithBot(cfg.Bot.Name),
	}
}

// RunResult contains the outcome of one posting run
type RunResult struct {
	Mode          string
	Item          catalog.Item
	PrimaryPostID string
	ReplyPostID   string
	Link          string
}

// Run executes one posting cycle. The chosen item is committed to the
// used-set the moment selection happens; failures after that point are
// recorded and notified but never roll the selection back.
func (a *Agent) Run(ctx context.Context) (*RunResult, error) {
	items, err := a.source.Fetch(ctx)
	if err != nil {
		err = fmt.Errorf("no catalog available: %w", err)
		a.notifier.Notify(ctx, notify.Event{
			Bot: a.botName, Status: notify.StatusFail, Message: err.Error(),
		})
		return nil, err
	}

	mode := a.bandit.Choose(a.epsilon)

	item, err := a.ledger.Choose(items)
	if err != nil {
		err = fmt.Errorf("item selection failed: %w", err)
		a.notifier.Notify(ctx, notify.Event{
			Bot: a.botName, Status: notify.StatusFail, Message: err.Error(), Mode: mode,
		})
		return nil, err
	}

	log := a.log.WithMode(mode)
	log.Info().Str("item", item.Title).Msg("Selection committed")

	link := a.buildLink(item, mode)

	draft, err := a.generator.GenerateDraft(ctx, mode, item)
	if err != nil {
		return nil, a.fail(ctx, mode, item, link, "", models.PostStatusGenFailed, err)
	}

	primaryID, err := a.publisher.CreatePost(ctx, draft.Primary)
	if err != nil {
		return nil, a.fail(ctx, mode, item, link, "", models.PostStatusPostFailed, err)
	}

	body := ComposeReply(draft.Reply, link, draft.Hashtags)

	var mediaIDs []string
	if a.media && item.ImagePath != "" {
		mediaID, err := a.publisher.UploadMedia(ctx, item.ImagePath)
		if err != nil {
			// Image is decoration; fall back to a text-only reply
			log.Warn().Err(err).Str("image", item.ImagePath).Msg("Media upload failed, posting text-only")
		} else {
			mediaIDs = append(mediaIDs, mediaID)
		}
	}

	replyID, err := a.publisher.Reply(ctx, body, primaryID, mediaIDs...)
	if err != nil {
		return nil, a.fail(ctx, mode, item, link, primaryID, models.PostStatusPostFailed, err)
	}

	rec := &models.PostRecord{
		Bot:           a.botName,
		Mode:          mode,
		ItemTitle:     item.Title,
		ItemID:        item.ExternalID,
		PrimaryPostID: primaryID,
		ReplyPostID:   replyID,
		Link:          link,
		Hashtags:      draft.Hashtags,
		Status:        models.PostStatusSuccess,
	}
	if err := a.repo.CreatePostRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record post: %w", err)
	}
	a.track(ctx, rec)

	if a.reward.Immediate != 0 {
		if err := a.bandit.Update(mode, a.reward.Immediate); err != nil {
			return nil, fmt.Errorf("failed to credit reward: %w", err)
		}
	}

	a.notifier.Notify(ctx, notify.Event{
		Bot:      a.botName,
		Status:   notify.StatusSuccess,
		Message:  fmt.Sprintf("Posted thread %s / %s", primaryID, replyID),
		Mode:     mode,
		Item:     item.Title,
		PostText: draft.Primary,
	})

	log.Info().
		Str("primary_id", primaryID).
		Str("reply_id", replyID).
		Msg("Posting run succeeded")

	return &RunResult{
		Mode:          mode,
		Item:          item,
		PrimaryPostID: primaryID,
		ReplyPostID:   replyID,
		Link:          link,
	}, nil
}

// fail records and reports a post-selection failure. The ledger entry
// stays committed; optionally the failed trial still counts against the
// mode as a zero reward.
func (a *Agent) fail(ctx context.Context, mode string, item catalog.Item, link, primaryID string, status models.PostStatus, cause error) error {
	a.log.Error().Err(cause).Str("mode", mode).Str("item", item.Title).Msg("Posting run failed")

	rec := &models.PostRecord{
		Bot:           a.botName,
		Mode:          mode,
		ItemTitle:     item.Title,
		ItemID:        item.ExternalID,
		PrimaryPostID: primaryID,
		Link:          link,
		Status:        status,
		ErrorMessage:  cause.Error(),
	}
	if err := a.repo.CreatePostRecord(ctx, rec); err != nil {
		a.log.Error().Err(err).Msg("Failed to record failed post")
	}
	a.track(ctx, rec)

	if a.reward.ZeroOnFailure {
		if err := a.bandit.Update(mode, 0); err != nil {
			a.log.Error().Err(err).Msg("Failed to record zero reward")
		}
	}

	a.notifier.Notify(ctx, notify.Event{
		Bot:     a.botName,
		Status:  notify.StatusFail,
		Message: cause.Error(),
		Mode:    mode,
		Item:    item.Title,
	})

	return cause
}

// track mirrors the record to the Sheets tracker when enabled
func (a *Agent) track(ctx context.Context, rec *models.PostRecord) {
	if a.tracker == nil {
		return
	}
	if err := a.tracker.Append(ctx, rec); err != nil {
		a.log.Warn().Err(err).Msg("Sheets tracking failed")
	}
}

// buildLink returns the reply link for an item: the affiliate product
// link for the product profile, the discussion URL for trends.
func (a *Agent) buildLink(item catalog.Item, mode string) string {
	if a.profile != "product" {
		return item.URL
	}

	tag := a.affiliate.Tag
	if t, ok := a.affiliate.TrackingIDByMode[mode]; ok && t != "" {
		tag = t
	}

	if item.HasStableID() {
		return fmt.Sprintf("https://www.amazon.com/dp/%s/?tag=%s", item.ExternalID, tag)
	}

	// Fall back to a search link
	q := item.Title
	if q == "" {
		q = strings.Join(item.Keywords, " ")
	}
	return fmt.Sprintf("https://www.amazon.com/s?k=%s&tag=%s", url.QueryEscape(q), tag)
}

// ComposeReply assembles the reply body: copy, link, then a minimal
// hashtag line, clamped to the platform limit.
func ComposeReply(reply, link string, hashtags []string) string {
	var b strings.Builder
	b.WriteString(reply)
	if link != "" {
		b.WriteString("\n")
		b.WriteString(link)
	}
	if len(hashtags) > 0 {
		tags := make([]string, 0, len(hashtags))
		for _, h := range hashtags {
			tags = append(tags, "#"+h)
		}
		b.WriteString("\n\n")
		b.WriteString(strings.Join(tags, " "))
	}
	return ai.Truncate(strings.TrimSpace(b.String()), ai.MaxPostLen)
}
