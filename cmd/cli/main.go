package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/tjharb909/FutureButNotNow/internal/agent/harvester"
	"github.com/tjharb909/FutureButNotNow/internal/agent/poster"
	"github.com/tjharb909/FutureButNotNow/internal/ai"
	"github.com/tjharb909/FutureButNotNow/internal/bandit"
	"github.com/tjharb909/FutureButNotNow/internal/catalog"
	"github.com/tjharb909/FutureButNotNow/internal/catalog/csvfile"
	"github.com/tjharb909/FutureButNotNow/internal/catalog/reddit"
	"github.com/tjharb909/FutureButNotNow/internal/catalog/rss"
	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/internal/ledger"
	"github.com/tjharb909/FutureButNotNow/internal/notify"
	"github.com/tjharb909/FutureButNotNow/internal/storage"
	"github.com/tjharb909/FutureButNotNow/internal/storage/sqlite"
	"github.com/tjharb909/FutureButNotNow/internal/tracker"
	"github.com/tjharb909/FutureButNotNow/internal/x"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
	"github.com/tjharb909/FutureButNotNow/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "futurebot",
		Short: "Affiliate and trend content bots for X",
		Long: `A family of content bots that pick a catalog item and a content mode,
generate short copy with Claude, post it to X as a thread, and learn
which modes earn engagement via an epsilon-greedy bandit.`,
		PersistentPreRunE: initializeApp,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(postCmd())
	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(postsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	// Initialize post-log storage
	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// buildSource constructs the catalog source for the configured profile
func buildSource(limiter *ratelimit.MultiLimiter) (catalog.Source, error) {
	scoring := catalog.ScoringConfig{
		ViralKeywords: cfg.Catalog.Trends.ViralKeywords,
		MaxItems:      cfg.Catalog.Trends.MaxItems,
		MinTitleLen:   cfg.Catalog.Trends.MinTitleLen,
	}

	switch cfg.Catalog.Source {
	case "csv":
		return csvfile.New(cfg.Catalog.CSV, log), nil
	case "reddit":
		return reddit.New(cfg.Catalog.Reddit, scoring, limiter, log), nil
	case "rss":
		feeds := rss.NewMultiple(cfg.Catalog.RSS, scoring, log)
		if len(feeds) == 0 {
			return nil, fmt.Errorf("catalog.rss.feeds is empty")
		}
		sources := make([]catalog.Source, len(feeds))
		for i, f := range feeds {
			sources[i] = f
		}
		return catalog.NewMulti("rss-feeds", sources...), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// buildNotifier returns the Slack notifier, or a no-op without a webhook
func buildNotifier(limiter *ratelimit.MultiLimiter) notify.Notifier {
	if cfg.Slack.WebhookURL == "" {
		return notify.Nop{}
	}
	return notify.NewSlack(cfg.Slack, limiter, log)
}

// ============ POST COMMAND ============

func postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post",
		Short: "Run one posting cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := context.Background()

			limiter := ratelimit.NewDefaultLimiter()
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))

			source, err := buildSource(limiter)
			if err != nil {
				return err
			}

			sel, err := bandit.New(cfg.Bandit.Modes, cfg.State.BanditPath(), rng, log)
			if err != nil {
				return err
			}
			ldg := ledger.New(cfg.State.UsedPath(), ledger.Policy{PreferStableID: cfg.Ledger.PreferStableID}, rng, log)

			sheetTracker, err := tracker.New(cfg.Tracker, limiter, log)
			if err != nil {
				return fmt.Errorf("failed to init sheets tracker: %w", err)
			}

			agent := poster.NewAgent(
				cfg,
				source,
				ldg,
				sel,
				ai.NewClient(cfg.Anthropic, limiter, log),
				x.NewClient(cfg.X, limiter, log),
				repo,
				sheetTracker,
				buildNotifier(limiter),
				log,
			)

			result, err := agent.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Posted ===\n")
			fmt.Printf("Mode:    %s\n", result.Mode)
			fmt.Printf("Item:    %s\n", result.Item.Title)
			fmt.Printf("Primary: %s\n", result.PrimaryPostID)
			fmt.Printf("Reply:   %s\n", result.ReplyPostID)
			fmt.Printf("Link:    %s\n", result.Link)

			return nil
		},
	}
}

// ============ HARVEST COMMAND ============

func harvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Harvest engagement metrics and update mode weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := context.Background()

			limiter := ratelimit.NewDefaultLimiter()
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))

			sel, err := bandit.New(cfg.Bandit.Modes, cfg.State.BanditPath(), rng, log)
			if err != nil {
				return err
			}

			agent := harvester.NewAgent(
				cfg.Bot.Name,
				cfg.Reward.HarvestWindow,
				x.NewClient(cfg.X, limiter, log),
				repo,
				sel,
				log,
			)

			result, err := agent.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Harvest ===\n")
			fmt.Printf("Posts examined: %d\n", result.PostsExamined)
			fmt.Printf("Metrics saved:  %d\n", result.MetricsSaved)
			for mode, reward := range result.ModeRewards {
				fmt.Printf("  %-12s +%.0f\n", mode, reward)
			}

			return nil
		},
	}
}

// ============ STATE COMMANDS ============

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset selection state",
	}
	cmd.AddCommand(stateShowCmd())
	cmd.AddCommand(stateResetCmd())
	return cmd
}

func stateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show bandit weights and used-item count",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))

			sel, err := bandit.New(cfg.Bandit.Modes, cfg.State.BanditPath(), rng, log)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Bandit (%s) ===\n", cfg.State.BanditPath())
			state := sel.Snapshot()
			modes := make([]string, 0, len(state))
			for m := range state {
				modes = append(modes, m)
			}
			sort.Strings(modes)
			for _, m := range modes {
				rec := state[m]
				fmt.Printf("  %-12s w=%.3f n=%-4d r=%.1f\n", m, rec.Weight, rec.Trials, rec.Reward)
			}

			ldg := ledger.New(cfg.State.UsedPath(), ledger.Policy{PreferStableID: cfg.Ledger.PreferStableID}, rng, log)
			used, err := ldg.Used()
			if err != nil {
				return err
			}
			fmt.Printf("\n=== Used set (%s) ===\n", cfg.State.UsedPath())
			fmt.Printf("  %d items used\n", len(used))

			return nil
		},
	}
}

func stateResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-ledger",
		Short: "Clear the used-item set",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			ldg := ledger.New(cfg.State.UsedPath(), ledger.Policy{PreferStableID: cfg.Ledger.PreferStableID}, rng, log)
			if err := ldg.Reset(); err != nil {
				return err
			}
			fmt.Println("Used set cleared")
			return nil
		},
	}
}

// ============ POSTS COMMAND ============

func postsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List recent post records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			filter := storage.DefaultPostRecordFilter()
			filter.Limit = limit

			recs, err := repo.ListPostRecords(ctx, filter)
			if err != nil {
				return err
			}

			fmt.Printf("\n%-20s %-12s %-10s %-30s %s\n", "TIME", "MODE", "STATUS", "ITEM", "POST ID")
			for _, rec := range recs {
				title := rec.ItemTitle
				if len(title) > 30 {
					title = title[:27] + "..."
				}
				fmt.Printf("%-20s %-12s %-10s %-30s %s\n",
					rec.CreatedAt.Format("2006-01-02 15:04"),
					rec.Mode,
					rec.Status,
					title,
					rec.PrimaryPostID,
				)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max records to show")
	return cmd
}
