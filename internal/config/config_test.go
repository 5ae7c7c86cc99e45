package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, yaml string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadFrom(t, "")

	assert.Equal(t, "ProductBot", cfg.Bot.Name)
	assert.Equal(t, "product", cfg.Bot.Profile)
	assert.Equal(t, DefaultModes, cfg.Bandit.Modes)
	assert.Equal(t, 0.25, cfg.Bandit.Epsilon)
	assert.True(t, cfg.Ledger.PreferStableID)
	assert.Equal(t, "csv", cfg.Catalog.Source)
	assert.Equal(t, "futurebutnotn-20", cfg.Affiliate.Tag)
	assert.Equal(t, 40, cfg.Reward.HarvestWindow)
	assert.Equal(t, 0.0, cfg.Reward.Immediate)
	assert.False(t, cfg.Reward.ZeroOnFailure)
	assert.True(t, cfg.X.UploadMedia)
	assert.False(t, cfg.Tracker.Enabled)
	assert.NotEmpty(t, cfg.Catalog.Trends.ViralKeywords)
}

func TestStatePaths(t *testing.T) {
	cfg := loadFrom(t, "state:\n  dir: /var/lib/futurebot\n")

	assert.Equal(t, filepath.Join("/var/lib/futurebot", "bandit.json"), cfg.State.BanditPath())
	assert.Equal(t, filepath.Join("/var/lib/futurebot", "used_set.json"), cfg.State.UsedPath())
}

func TestLoadOverridesFromFile(t *testing.T) {
	cfg := loadFrom(t, `
bot:
  name: TrendBot
  profile: trend
bandit:
  modes: [spiral, left, right]
  epsilon: 0.1
catalog:
  source: reddit
  reddit:
    subreddit: technology
`)

	assert.Equal(t, "TrendBot", cfg.Bot.Name)
	assert.Equal(t, "trend", cfg.Bot.Profile)
	assert.Equal(t, []string{"spiral", "left", "right"}, cfg.Bandit.Modes)
	assert.Equal(t, 0.1, cfg.Bandit.Epsilon)
	assert.Equal(t, "reddit", cfg.Catalog.Source)
	assert.Equal(t, "technology", cfg.Catalog.Reddit.Subreddit)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FBNN_ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("FBNN_X_ACCESS_TOKEN", "tok")
	t.Setenv("FBNN_AFFILIATE_TAG", "othertag-20")

	cfg := loadFrom(t, "")
	assert.Equal(t, "sk-test", cfg.Anthropic.APIKey)
	assert.Equal(t, "tok", cfg.X.AccessToken)
	assert.Equal(t, "othertag-20", cfg.Affiliate.Tag)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := loadFrom(t, "")
		cfg.Anthropic.APIKey = "sk-test"
		cfg.X.AccessToken = "tok"
		return cfg
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Anthropic.APIKey = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.X.AccessToken = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Bandit.Modes = nil
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Bandit.Epsilon = 1.5
	assert.Error(t, cfg.Validate())
}
