package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	State     StateConfig     `mapstructure:"state"`
	Bandit    BanditConfig    `mapstructure:"bandit"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	X         XConfig         `mapstructure:"x"`
	Affiliate AffiliateConfig `mapstructure:"affiliate"`
	Reward    RewardConfig    `mapstructure:"reward"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// BotConfig selects which bot profile a run uses
type BotConfig struct {
	Name    string `mapstructure:"name"`    // display name used in logs and Slack
	Profile string `mapstructure:"profile"` // product or trend
}

// StateConfig holds the persisted selection-state file locations
type StateConfig struct {
	Dir        string `mapstructure:"dir"`         // state directory
	BanditFile string `mapstructure:"bandit_file"` // bandit weights, relative to dir
	UsedFile   string `mapstructure:"used_file"`   // used-item set, relative to dir
}

// BanditPath returns the absolute path of the bandit state file
func (s StateConfig) BanditPath() string {
	return filepath.Join(s.Dir, s.BanditFile)
}

// UsedPath returns the absolute path of the used-set state file
func (s StateConfig) UsedPath() string {
	return filepath.Join(s.Dir, s.UsedFile)
}

// BanditConfig holds mode-selection settings
type BanditConfig struct {
	Modes   []string `mapstructure:"modes"`   // fixed arm set, decided at deployment time
	Epsilon float64  `mapstructure:"epsilon"` // exploration probability
}

// LedgerConfig holds used-item ledger settings
type LedgerConfig struct {
	PreferStableID bool `mapstructure:"prefer_stable_id"` // reset tie-break: items with an ASIN first
}

// CatalogConfig holds item source settings
type CatalogConfig struct {
	Source string       `mapstructure:"source"` // csv, reddit or rss
	CSV    CSVConfig    `mapstructure:"csv"`
	Reddit RedditConfig `mapstructure:"reddit"`
	RSS    RSSConfig    `mapstructure:"rss"`
	Trends TrendsConfig `mapstructure:"trends"`
}

// CSVConfig holds the curated product catalog settings
type CSVConfig struct {
	Path      string `mapstructure:"path"`
	ImagesDir string `mapstructure:"images_dir"`
}

// RedditConfig holds the Reddit trend source settings
type RedditConfig struct {
	Subreddit string `mapstructure:"subreddit"`
	Limit     int    `mapstructure:"limit"`
	UserAgent string `mapstructure:"user_agent"`
}

// RSSConfig holds RSS feed settings
type RSSConfig struct {
	Feeds []RSSFeed `mapstructure:"feeds"`
}

// RSSFeed represents a single RSS feed
type RSSFeed struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// TrendsConfig controls trend scoring and filtering
type TrendsConfig struct {
	ViralKeywords []string `mapstructure:"viral_keywords"`
	MaxItems      int      `mapstructure:"max_items"`
	MinTitleLen   int      `mapstructure:"min_title_len"`
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// XConfig holds X (Twitter) API settings
type XConfig struct {
	AccessToken string `mapstructure:"access_token"` // OAuth2 user-context bearer token
	UploadMedia bool   `mapstructure:"upload_media"` // attach catalog images when present
}

// AffiliateConfig holds Amazon affiliate link settings
type AffiliateConfig struct {
	Tag              string            `mapstructure:"tag"`
	TrackingIDByMode map[string]string `mapstructure:"tracking_id_by_mode"`
}

// RewardConfig controls how bandit rewards are derived
type RewardConfig struct {
	Immediate     float64 `mapstructure:"immediate"`       // fixed reward on successful post; 0 disables
	ZeroOnFailure bool    `mapstructure:"zero_on_failure"` // record a zero-reward trial on failed posts
	HarvestWindow int     `mapstructure:"harvest_window"`  // recent posts considered by the metrics run
}

// DatabaseConfig holds post-log database settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// TrackerConfig holds Google Sheets tracker settings
type TrackerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SheetName          string `mapstructure:"sheet_name"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// SlackConfig holds operator notification settings
type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	PostCron    string `mapstructure:"post_cron"`
	HarvestCron string `mapstructure:"harvest_cron"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// DefaultModes is the fixed arm set the product bot ships with
var DefaultModes = []string{"spiky", "confession", "problem_fix", "brand_tax", "micro_drill", "two_choice"}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in current directory and configs folder
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		// Also check user's home directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".futurebot"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("FBNN")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("anthropic.api_key", "FBNN_ANTHROPIC_API_KEY")
	v.BindEnv("x.access_token", "FBNN_X_ACCESS_TOKEN")
	v.BindEnv("slack.webhook_url", "FBNN_SLACK_WEBHOOK_URL")
	v.BindEnv("affiliate.tag", "FBNN_AFFILIATE_TAG")
	v.BindEnv("database.dsn", "FBNN_DATABASE_DSN")
	v.BindEnv("tracker.enabled", "FBNN_TRACKER_ENABLED")
	v.BindEnv("tracker.spreadsheet_id", "FBNN_TRACKER_SPREADSHEET_ID")
	v.BindEnv("tracker.credentials_file", "FBNN_TRACKER_CREDENTIALS_FILE")
	v.BindEnv("tracker.service_account_json", "FBNN_TRACKER_SERVICE_ACCOUNT_JSON")
	v.BindEnv("catalog.reddit.user_agent", "FBNN_CATALOG_REDDIT_USER_AGENT")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Bot defaults
	v.SetDefault("bot.name", "ProductBot")
	v.SetDefault("bot.profile", "product")

	// State defaults
	v.SetDefault("state.dir", "./state")
	v.SetDefault("state.bandit_file", "bandit.json")
	v.SetDefault("state.used_file", "used_set.json")

	// Bandit defaults
	v.SetDefault("bandit.modes", DefaultModes)
	v.SetDefault("bandit.epsilon", 0.25)

	// Ledger defaults
	v.SetDefault("ledger.prefer_stable_id", true)

	// Catalog defaults
	v.SetDefault("catalog.source", "csv")
	v.SetDefault("catalog.csv.path", "./products.csv")
	v.SetDefault("catalog.csv.images_dir", "./images")
	v.SetDefault("catalog.reddit.subreddit", "all")
	v.SetDefault("catalog.reddit.limit", 50)
	v.SetDefault("catalog.reddit.user_agent", "futurebot/1.0")
	v.SetDefault("catalog.trends.viral_keywords", []string{
		"dies", "ban", "leak", "update", "fired", "explodes",
		"AI", "GPT", "parody", "war", "meme", "love",
	})
	v.SetDefault("catalog.trends.max_items", 15)
	v.SetDefault("catalog.trends.min_title_len", 15)

	// Anthropic defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.9)

	// X defaults
	v.SetDefault("x.upload_media", true)

	// Affiliate defaults
	v.SetDefault("affiliate.tag", "futurebutnotn-20")

	// Reward defaults: engagement-driven by default, no immediate credit
	v.SetDefault("reward.immediate", 0.0)
	v.SetDefault("reward.zero_on_failure", false)
	v.SetDefault("reward.harvest_window", 40)

	// Database defaults
	v.SetDefault("database.dsn", "./data/futurebot.db")

	// Tracker defaults
	v.SetDefault("tracker.enabled", false)
	v.SetDefault("tracker.sheet_name", "Posts")

	// Scheduler defaults
	v.SetDefault("scheduler.post_cron", "0 14 * * *")    // 2pm UTC daily post
	v.SetDefault("scheduler.harvest_cron", "15 5 * * *") // nightly metrics harvest

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required")
	}
	if c.X.AccessToken == "" {
		return fmt.Errorf("x.access_token is required")
	}
	if len(c.Bandit.Modes) == 0 {
		return fmt.Errorf("bandit.modes must not be empty")
	}
	if c.Bandit.Epsilon < 0 || c.Bandit.Epsilon > 1 {
		return fmt.Errorf("bandit.epsilon must be in [0,1]")
	}
	return nil
}
