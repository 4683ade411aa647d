package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/hypefinder/pkg/scorer"
	"github.com/elonfeng/hypefinder/pkg/source"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.7, cfg.Scoring.VolumeWeight)
	assert.Equal(t, 0.3, cfg.Scoring.SentimentWeight)
	assert.Equal(t, 5, cfg.Scoring.MinMentions)
	assert.Equal(t, 20, cfg.Scoring.TopN)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.ParseCollectInterval())
	assert.Equal(t, 30*time.Minute, cfg.Schedule.ParseScanInterval())
	assert.Equal(t, 24*time.Hour, cfg.Schedule.ParseLookback())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.False(t, cfg.Sources.Reddit.Enabled)
	assert.True(t, cfg.Sources.RSS.Enabled)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/hype.db
schedule:
  scan_interval: 1h
scoring:
  volume_weight: 0.5
  sentiment_weight: 0.5
  top_n: 10
  volume:
    source_weights:
      rss: 0.5
sources:
  reddit:
    enabled: true
    subreddits: [pennystocks]
  rss:
    feeds:
      - name: Wire
        url: https://wire.example/rss
alerts:
  min_score: 1.2
log:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/hype.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Schedule.ParseScanInterval())
	assert.Equal(t, 15*time.Minute, cfg.Schedule.ParseCollectInterval())
	assert.Equal(t, 0.5, cfg.Scoring.VolumeWeight)
	assert.Equal(t, 10, cfg.Scoring.TopN)
	// Untouched scoring values keep their defaults.
	assert.Equal(t, 5, cfg.Scoring.MinMentions)
	assert.Equal(t, 0.9, cfg.Scoring.Volume.TimeDecayFactor)
	assert.Equal(t, 0.5, cfg.Scoring.Volume.SourceWeights[source.SourceRSS])
	assert.Equal(t, 1.2, cfg.Scoring.Volume.SourceWeights[source.SourceReddit])
	assert.Equal(t, []string{"pennystocks"}, cfg.Sources.Reddit.Subreddits)
	assert.Equal(t, []source.RSSFeed{{Name: "Wire", URL: "https://wire.example/rss"}}, cfg.Sources.RSS.Feeds)
	assert.Equal(t, 1.2, cfg.Alerts.MinScore)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeConfig(t, "scoring: [not, a, map]"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "scoring:\n  volume_weight: 0\n  sentiment_weight: 0\n"))
	assert.ErrorIs(t, err, scorer.ErrInvalidConfig)

	_, err = Load(writeConfig(t, "schedule:\n  scan_interval: soon\n"))
	assert.ErrorContains(t, err, "schedule.scan_interval")

	_, err = Load(writeConfig(t, "log:\n  format: xml\n"))
	assert.ErrorContains(t, err, "log.format")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HYPEFINDER_DB_PATH", "/data/env.db")
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/x")
	t.Setenv("VOLUME_WEIGHT", "0.6")
	t.Setenv("SENTIMENT_WEIGHT", "0.4")
	t.Setenv("TOP_N_TICKERS", "5")
	t.Setenv("MIN_MENTIONS", "3")
	t.Setenv("REQUEST_TIMEOUT", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/env.db", cfg.Database.Path)
	assert.True(t, cfg.Sources.Reddit.Enabled)
	assert.Equal(t, "secret", cfg.Sources.Reddit.ClientSecret)
	assert.True(t, cfg.Alerts.Slack.Enabled)
	assert.Equal(t, 0.6, cfg.Scoring.VolumeWeight)
	assert.Equal(t, 0.4, cfg.Scoring.SentimentWeight)
	assert.Equal(t, 5, cfg.Scoring.TopN)
	assert.Equal(t, 3, cfg.Scoring.MinMentions)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverrideErrors(t *testing.T) {
	t.Setenv("TOP_N_TICKERS", "twenty")
	_, err := Load("")
	assert.ErrorContains(t, err, "parse TOP_N_TICKERS")

	t.Setenv("TOP_N_TICKERS", "0")
	_, err = Load("")
	assert.ErrorIs(t, err, scorer.ErrInvalidConfig)
}
