package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
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
		Use:   "futurebot-scheduler",
		Short: "Background scheduler for the content bots",
		Long: `Runs the posting and metrics-harvest cycles on cron schedules.
This daemon should be run as a service for autonomous operation.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Str("bot", cfg.Bot.Name).Str("profile", cfg.Bot.Profile).Msg("Starting bot scheduler")

	// Initialize post-log storage
	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Start health check server for Render
	go startHealthServer()

	// Initialize rate limiter and shared RNG
	limiter := ratelimit.NewDefaultLimiter()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Initialize catalog source
	source, err := buildSource(limiter)
	if err != nil {
		return err
	}

	// Initialize selection state
	sel, err := bandit.New(cfg.Bandit.Modes, cfg.State.BanditPath(), rng, log)
	if err != nil {
		return fmt.Errorf("failed to load bandit state: %w", err)
	}
	ldg := ledger.New(cfg.State.UsedPath(), ledger.Policy{PreferStableID: cfg.Ledger.PreferStableID}, rng, log)

	// Initialize Sheets tracker (nil when disabled)
	sheetTracker, err := tracker.New(cfg.Tracker, limiter, log)
	if err != nil {
		return fmt.Errorf("failed to init sheets tracker: %w", err)
	}

	// Initialize Slack notifier
	var notifier notify.Notifier = notify.Nop{}
	if cfg.Slack.WebhookURL != "" {
		notifier = notify.NewSlack(cfg.Slack, limiter, log)
	}

	// Initialize X client
	xClient := x.NewClient(cfg.X, limiter, log)

	// Create agents
	posterAgent := poster.NewAgent(
		cfg,
		source,
		ldg,
		sel,
		ai.NewClient(cfg.Anthropic, limiter, log),
		xClient,
		repo,
		sheetTracker,
		notifier,
		log,
	)
	harvesterAgent := harvester.NewAgent(cfg.Bot.Name, cfg.Reward.HarvestWindow, xClient, repo, sel, log)

	// Create cron scheduler
	c := cron.New(cron.WithLogger(cronLogger{log}))

	// Schedule posting job
	_, err = c.AddFunc(cfg.Scheduler.PostCron, func() {
		ctx := context.Background()
		log.Info().Msg("Running scheduled post")

		result, err := posterAgent.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled post failed")
			return
		}

		log.Info().
			Str("mode", result.Mode).
			Str("item", result.Item.Title).
			Str("primary_id", result.PrimaryPostID).
			Msg("Scheduled post completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule post job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.PostCron).Msg("Post job scheduled")

	// Schedule harvest job
	_, err = c.AddFunc(cfg.Scheduler.HarvestCron, func() {
		ctx := context.Background()
		log.Info().Msg("Running scheduled harvest")

		result, err := harvesterAgent.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled harvest failed")
			return
		}

		log.Info().
			Int("posts", result.PostsExamined).
			Int("metrics", result.MetricsSaved).
			Msg("Scheduled harvest completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule harvest job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.HarvestCron).Msg("Harvest job scheduled")

	// Start scheduler
	c.Start()
	log.Info().Msg("Scheduler started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	c.Stop()

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

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}

// startHealthServer starts a simple HTTP server for health checks (used by Render)
func startHealthServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Content Bot Scheduler"))
	})

	log.Info().Str("port", port).Msg("Health check server starting")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Error().Err(err).Msg("Health server failed")
	}
}
