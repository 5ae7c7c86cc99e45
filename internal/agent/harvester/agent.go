// Package harvester runs the deferred-reward cycle: fetch engagement
// metrics for recently posted threads and fold them back into the
// bandit's mode weights.
package harvester

import (
	"context"
	"fmt"
	"sort"

	"github.com/tjharb909/FutureButNotNow/internal/bandit"
	"github.com/tjharb909/FutureButNotNow/internal/models"
	"github.com/tjharb909/FutureButNotNow/internal/storage"
	"github.com/tjharb909/FutureButNotNow/internal/x"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

// MetricsFetcher retrieves public engagement counters for post IDs
type MetricsFetcher interface {
	GetMetrics(ctx context.Context, ids []string) (map[string]x.Metrics, error)
}

// EngagementReward converts raw counters into a scalar reward. Replies
// and reposts count double: they spread the post, likes only bless it.
func EngagementReward(m x.Metrics) float64 {
	return float64(m.Likes + 2*m.Replies + 2*m.Reposts + m.Quotes)
}

// Agent runs one harvest cycle
type Agent struct {
	botName string
	window  int
	fetcher MetricsFetcher
	repo    storage.Repository
	bandit  *bandit.Selector
	log     *logger.Logger
}

// NewAgent creates a new harvester agent
func NewAgent(botName string, window int, fetcher MetricsFetcher, repo storage.Repository, sel *bandit.Selector, log *logger.Logger) *Agent {
	return &Agent{
		botName: botName,
		window:  window,
		fetcher: fetcher,
		repo:    repo,
		bandit:  sel,
		log:     log.WithComponent("harvester").WithBot(botName),
	}
}

// HarvestResult contains the outcome of one harvest run
type HarvestResult struct {
	PostsExamined int
	MetricsSaved  int
	ModeRewards   map[string]float64
}

// Run fetches metrics for unharvested successful posts, stores the
// observations, and credits each mode once with its summed reward.
// Nothing to harvest is a clean no-op.
func (a *Agent) Run(ctx context.Context) (*HarvestResult, error) {
	recs, err := a.repo.RecentSuccesses(ctx, a.botName, a.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent posts: %w", err)
	}

	result := &HarvestResult{
		PostsExamined: len(recs),
		ModeRewards:   make(map[string]float64),
	}
	if len(recs) == 0 {
		a.log.Info().Msg("No posts to harvest")
		return result, nil
	}

	// Collect both thread halves; only the primary earns the reward
	byPrimary := make(map[string]*models.PostRecord, len(recs))
	owner := make(map[string]*models.PostRecord, len(recs)*2)
	ids := make([]string, 0, len(recs)*2)
	for _, rec := range recs {
		if rec.PrimaryPostID != "" {
			byPrimary[rec.PrimaryPostID] = rec
			owner[rec.PrimaryPostID] = rec
			ids = append(ids, rec.PrimaryPostID)
		}
		if rec.ReplyPostID != "" {
			owner[rec.ReplyPostID] = rec
			ids = append(ids, rec.ReplyPostID)
		}
	}

	metrics, err := a.fetcher.GetMetrics(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metrics: %w", err)
	}

	var engagement []*models.EngagementRecord
	for id, m := range metrics {
		rec, ok := owner[id]
		if !ok {
			continue
		}
		engagement = append(engagement, &models.EngagementRecord{
			PostRecordID: rec.ID,
			PostID:       id,
			Likes:        m.Likes,
			Replies:      m.Replies,
			Reposts:      m.Reposts,
			Quotes:       m.Quotes,
		})
		if _, primary := byPrimary[id]; primary {
			result.ModeRewards[rec.Mode] += EngagementReward(m)
		}
	}

	if err := a.repo.CreateEngagementRecords(ctx, engagement); err != nil {
		return nil, fmt.Errorf("failed to save engagement records: %w", err)
	}
	result.MetricsSaved = len(engagement)

	// One trial per mode per harvest, deterministic order
	modes := make([]string, 0, len(result.ModeRewards))
	for m := range result.ModeRewards {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	for _, mode := range modes {
		if err := a.bandit.Update(mode, result.ModeRewards[mode]); err != nil {
			return nil, fmt.Errorf("failed to credit mode %s: %w", mode, err)
		}
	}

	harvested := make([]uint, 0, len(recs))
	for _, rec := range recs {
		harvested = append(harvested, rec.ID)
	}
	if err := a.repo.MarkHarvested(ctx, harvested); err != nil {
		return nil, fmt.Errorf("failed to mark posts harvested: %w", err)
	}

	a.log.Info().
		Int("posts", len(recs)).
		Int("metrics", result.MetricsSaved).
		Int("modes_credited", len(modes)).
		Msg("Harvest completed")

	return result, nil
}
