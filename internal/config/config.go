package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/elonfeng/hypefinder/pkg/scorer"
	"github.com/elonfeng/hypefinder/pkg/source"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Sources  SourcesConfig  `yaml:"sources"`
	Scoring  scorer.Config  `yaml:"scoring"`
	Tickers  TickersConfig  `yaml:"tickers"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
	Filter   FilterConfig   `yaml:"filter"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures collection and scan intervals.
type ScheduleConfig struct {
	CollectInterval string `yaml:"collect_interval"`
	ScanInterval    string `yaml:"scan_interval"`
	Lookback        string `yaml:"lookback"` // window of stored posts a scan reads
}

// ParseCollectInterval returns the collect interval as time.Duration.
func (s ScheduleConfig) ParseCollectInterval() time.Duration {
	return parseDurationOr(s.CollectInterval, 15*time.Minute)
}

// ParseScanInterval returns the scan interval as time.Duration.
func (s ScheduleConfig) ParseScanInterval() time.Duration {
	return parseDurationOr(s.ScanInterval, 30*time.Minute)
}

// ParseLookback returns the scan lookback window as time.Duration.
func (s ScheduleConfig) ParseLookback() time.Duration {
	return parseDurationOr(s.Lookback, 24*time.Hour)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// SourcesConfig holds configuration for all data sources.
type SourcesConfig struct {
	Reddit         RedditConfig  `yaml:"reddit"`
	Twitter        TwitterConfig `yaml:"twitter"`
	RSS            RSSConfig     `yaml:"rss"`
	RequestTimeout string        `yaml:"request_timeout"`
}

// RedditConfig for Reddit collector.
type RedditConfig struct {
	Enabled           bool     `yaml:"enabled"`
	ClientID          string   `yaml:"client_id"`
	ClientSecret      string   `yaml:"client_secret"`
	UserAgent         string   `yaml:"user_agent"`
	Subreddits        []string `yaml:"subreddits"`
	PostsPerSubreddit int      `yaml:"posts_per_subreddit"`
	CommentsPerPost   int      `yaml:"comments_per_post"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
}

// TwitterConfig for the Nitter-backed Twitter/X collector.
type TwitterConfig struct {
	Enabled   bool     `yaml:"enabled"`
	NitterURL string   `yaml:"nitter_url"`
	Accounts  []string `yaml:"accounts"`
	Queries   []string `yaml:"queries"`
}

// RSSConfig for RSS feed collector.
type RSSConfig struct {
	Enabled bool             `yaml:"enabled"`
	Feeds   []source.RSSFeed `yaml:"feeds"`
}

// TickersConfig points at an optional list of known symbols.
type TickersConfig struct {
	ListPath string `yaml:"list_path"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	MinScore float64       `yaml:"min_score"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
	Webhook  WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// FilterConfig configures content filtering.
type FilterConfig struct {
	ExtraKeywords   []string `yaml:"extra_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./hypefinder.db"},
		Schedule: ScheduleConfig{
			CollectInterval: "15m",
			ScanInterval:    "30m",
			Lookback:        "24h",
		},
		Sources: SourcesConfig{
			Reddit: RedditConfig{
				Enabled:           false,
				UserAgent:         "HypeFinder/1.0",
				Subreddits:        source.DefaultSubreddits,
				PostsPerSubreddit: 100,
				CommentsPerPost:   5,
				RequestsPerSecond: 1,
			},
			Twitter: TwitterConfig{
				Enabled:   false,
				NitterURL: "https://nitter.net",
				Queries:   source.DefaultTwitterQueries,
			},
			RSS: RSSConfig{
				Enabled: true,
				Feeds:   source.DefaultFinanceFeeds,
			},
			RequestTimeout: "30s",
		},
		Scoring: scorer.DefaultConfig(),
		Alerts:  AlertsConfig{MinScore: 0.8},
		Server:  ServerConfig{Port: 8080},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads .env, then configuration from a YAML file, then applies env var
// overrides and validates the result.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	for name, v := range map[string]string{
		"schedule.collect_interval": c.Schedule.CollectInterval,
		"schedule.scan_interval":    c.Schedule.ScanInterval,
		"schedule.lookback":         c.Schedule.Lookback,
		"sources.request_timeout":   c.Sources.RequestTimeout,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("invalid %s %q", name, v)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	return nil
}

// RequestTimeout returns the per-request timeout for collectors.
func (c *Config) RequestTimeout() time.Duration {
	return parseDurationOr(c.Sources.RequestTimeout, 30*time.Second)
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("HYPEFINDER_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Sources.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Sources.Reddit.ClientSecret = v
	}
	if cfg.Sources.Reddit.ClientID != "" && cfg.Sources.Reddit.ClientSecret != "" {
		cfg.Sources.Reddit.Enabled = true
	}
	if v := os.Getenv("REDDIT_USER_AGENT"); v != "" {
		cfg.Sources.Reddit.UserAgent = v
	}
	if v := os.Getenv("NITTER_URL"); v != "" {
		cfg.Sources.Twitter.NitterURL = v
		cfg.Sources.Twitter.Enabled = true
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		// Seconds, as the variable has always been given.
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse REQUEST_TIMEOUT: %w", err)
		}
		cfg.Sources.RequestTimeout = (time.Duration(n) * time.Second).String()
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"VOLUME_WEIGHT", &cfg.Scoring.VolumeWeight},
		{"SENTIMENT_WEIGHT", &cfg.Scoring.SentimentWeight},
	}
	for _, f := range floats {
		if v := os.Getenv(f.name); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("parse %s: %w", f.name, err)
			}
			*f.dst = n
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"TOP_N_TICKERS", &cfg.Scoring.TopN},
		{"MIN_MENTIONS", &cfg.Scoring.MinMentions},
		{"MAX_POSTS_PER_SUBREDDIT", &cfg.Sources.Reddit.PostsPerSubreddit},
	}
	for _, i := range ints {
		if v := os.Getenv(i.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", i.name, err)
			}
			*i.dst = n
		}
	}
	return nil
}
