package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/hypefinder/internal/config"
	"github.com/elonfeng/hypefinder/internal/engine"
	"github.com/elonfeng/hypefinder/internal/scheduler"
	"github.com/elonfeng/hypefinder/internal/store"
	"github.com/elonfeng/hypefinder/pkg/alert"
	"github.com/elonfeng/hypefinder/pkg/parser"
	"github.com/elonfeng/hypefinder/pkg/scorer"
	"github.com/elonfeng/hypefinder/pkg/server"
	"github.com/elonfeng/hypefinder/pkg/source"
)

const explainTop = 3

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

// app holds what every command needs once the config is resolved.
type app struct {
	cfg    *config.Config
	db     *store.SQLiteStore
	engine *engine.Engine
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	hs, err := buildScorer(cfg.Scoring, cfg.Tickers.ListPath)
	if err != nil {
		return nil, err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &app{
		cfg:    cfg,
		db:     db,
		engine: engine.New(db, hs, buildSources(cfg), cfg.Schedule.ParseLookback()),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func buildScorer(cfg scorer.Config, tickerList string) (*scorer.HypeScorer, error) {
	var opts []scorer.Option
	if tickerList != "" {
		known, err := parser.LoadTickerList(tickerList)
		if err != nil {
			return nil, err
		}
		log.Debug().Int("tickers", len(known)).Str("path", tickerList).Msg("loaded ticker list")
		opts = append(opts, scorer.WithKnownTickers(known))
	}
	return scorer.New(cfg, opts...)
}

func buildSources(cfg *config.Config) []source.Source {
	var sources []source.Source

	filter := source.NewFilter(cfg.Filter.ExtraKeywords, cfg.Filter.ExcludeKeywords)
	cleaner := parser.NewCleaner()

	if cfg.Sources.Reddit.Enabled {
		rc := cfg.Sources.Reddit
		sources = append(sources, source.NewReddit(source.RedditConfig{
			ClientID:          rc.ClientID,
			ClientSecret:      rc.ClientSecret,
			UserAgent:         rc.UserAgent,
			Subreddits:        rc.Subreddits,
			PostsPerSubreddit: rc.PostsPerSubreddit,
			CommentsPerPost:   rc.CommentsPerPost,
			RequestsPerSecond: rc.RequestsPerSecond,
			Timeout:           cfg.RequestTimeout(),
			Clean:             cleaner.CleanRedditPost,
		}, filter))
	}
	if cfg.Sources.Twitter.Enabled {
		tc := cfg.Sources.Twitter
		sources = append(sources, source.NewTwitter(tc.NitterURL, tc.Accounts, tc.Queries, func(s string) string {
			return cleaner.CleanSocialMedia(s, true)
		}))
	}
	if cfg.Sources.RSS.Enabled {
		sources = append(sources, source.NewRSS(cfg.Sources.RSS.Feeds, filter, cleaner.CleanBasic))
	}

	return sources
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runCollect(ctx context.Context, only string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if len(a.engine.Sources()) == 0 {
		return errors.New("no sources enabled (check sources.* in config or REDDIT_CLIENT_ID)")
	}

	results, err := a.engine.Collect(ctx, source.SourceType(strings.ToLower(strings.TrimSpace(only))))
	if err != nil {
		return err
	}

	total := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tPOSTS\tTOOK\tERROR")
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Source, humanize.Comma(int64(len(r.Posts))),
			r.Duration.Round(time.Millisecond), errText)
		total += len(r.Posts)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\ntotal: %s posts from %d sources\n", humanize.Comma(int64(total)), len(results))
	return nil
}

func runScan(ctx context.Context, opts scanOptions) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	scanOpts := engine.ScanOpts{Lookback: opts.lookback, NoSave: opts.noSave}
	hs := a.engine.Scorer()
	if opts.top > 0 || opts.minMentions > 0 {
		cfg := a.cfg.Scoring
		if opts.top > 0 {
			cfg.TopN = opts.top
		}
		if opts.minMentions > 0 {
			cfg.MinMentions = opts.minMentions
		}
		if hs, err = buildScorer(cfg, a.cfg.Tickers.ListPath); err != nil {
			return err
		}
		scanOpts.Scorer = hs
	}

	report, err := a.engine.Scan(ctx, scanOpts)
	if err != nil {
		return err
	}
	summary := hs.Summarize(report.Results)

	if opts.csvPath != "" {
		if err := writeResultsCSV(opts.csvPath, report.Results); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "results saved to %s\n", opts.csvPath)
	}

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"scan":    report.Scan,
			"saved":   report.Saved,
			"results": report.Results,
			"summary": summary,
		})
	}

	if len(report.Results) == 0 {
		fmt.Println("no tickers met the mention threshold (try collecting data first: hypefinder collect)")
		return nil
	}

	fmt.Printf("Top %d trending tickers\n\n", len(report.Results))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tTICKER\tHYPE\tVOLUME\tSENTIMENT\tMENTIONS\tTREND\tPLATFORMS")
	for _, r := range report.Results {
		fmt.Fprintf(w, "%d\t$%s\t%.3f\t%.3f\t%+.3f\t%d\t%s\t%s\n",
			r.Rank, r.Ticker, r.HypeScore, r.VolumeScore, r.SentimentScore,
			r.MentionCount, r.SentimentTrend, strings.Join(r.Platforms, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if opts.explain {
		for _, r := range report.Results[:min(explainTop, len(report.Results))] {
			fmt.Printf("\n%s\n", scorer.Explain(r.Ticker, r))
		}
	}

	printSummary(summary, report)
	return nil
}

func printSummary(s scorer.Summary, report *engine.ScanReport) {
	fmt.Println("\nScan summary")
	fmt.Printf("  Posts scored:    %s\n", humanize.Comma(int64(report.Scan.PostCount)))
	fmt.Printf("  Tickers ranked:  %d\n", s.TotalTickers)
	fmt.Printf("  Total mentions:  %s\n", humanize.Comma(int64(s.TotalMentions)))
	fmt.Printf("  Avg hype score:  %.3f\n", s.AvgHypeScore)
	if s.TopTicker != "" {
		fmt.Printf("  Top ticker:      $%s (%.3f)\n", s.TopTicker, s.TopHypeScore)
	}
	if report.Saved {
		fmt.Printf("  Scan ID:         %s\n", report.Scan.ID)
	}
}

func runExplain(ctx context.Context, raw string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ticker := parser.CleanTicker(raw)
	report, err := a.engine.Latest(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return errors.New("no saved scan yet (run: hypefinder scan)")
	}
	if err != nil {
		return err
	}

	for _, r := range report.Results {
		if r.Ticker == ticker {
			fmt.Println(scorer.Explain(ticker, r))
			fmt.Printf("\nFrom scan %s, %s.\n", report.Scan.ID, humanize.Time(report.Scan.FinishedAt))
			return nil
		}
	}
	return fmt.Errorf("$%s is not ranked in the latest scan", ticker)
}

func runHistory(ctx context.Context, raw string, limit int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ticker := parser.CleanTicker(raw)
	points, err := a.db.TickerHistory(ctx, ticker, limit)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Printf("no history for $%s\n", ticker)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCANNED\tRANK\tHYPE\tVOLUME\tSENTIMENT\tMENTIONS\tTREND\tALERTED")
	for _, p := range points {
		alerted := ""
		if p.Alerted {
			alerted = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%+.3f\t%d\t%s\t%s\n",
			humanize.Time(p.ScannedAt), p.Rank, p.HypeScore, p.VolumeScore,
			p.SentimentScore, p.MentionCount, p.SentimentTrend, alerted)
	}
	return w.Flush()
}

func runServe(ctx context.Context, port int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Server.Port
	}
	return server.New(a.engine, port).ListenAndServe(ctx)
}

func runDaemon(ctx context.Context, port int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Server.Port
	}

	sched := scheduler.New(a.engine, buildAlertManager(a.cfg),
		a.cfg.Schedule.ParseCollectInterval(),
		a.cfg.Schedule.ParseScanInterval(),
		a.cfg.Alerts.MinScore,
	)
	srv := server.New(a.engine, port)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})

	err = g.Wait()
	log.Info().Msg("shut down")
	return err
}

func runStatus(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sc := a.cfg.Scoring
	fmt.Println("HypeFinder status")
	fmt.Printf("  Volume weight:     %g\n", sc.VolumeWeight)
	fmt.Printf("  Sentiment weight:  %g\n", sc.SentimentWeight)
	fmt.Printf("  Top N tickers:     %d\n", sc.TopN)
	fmt.Printf("  Min mentions:      %d\n", sc.MinMentions)
	fmt.Printf("  Database:          %s\n", a.cfg.Database.Path)

	counts, err := a.db.CountPostsBySource(ctx)
	if err != nil {
		return err
	}
	enabled := make(map[source.SourceType]bool)
	for _, src := range a.engine.Sources() {
		enabled[src.Name()] = true
	}

	fmt.Println("\nSources")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tENABLED\tSTORED POSTS")
	for _, st := range source.AllSourceTypes() {
		state := "no"
		if enabled[st] {
			state = "yes"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", st, state, humanize.Comma(int64(counts[st])))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	scan, err := a.db.LatestScan(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Println("\nLast scan: never")
	case err != nil:
		return err
	default:
		fmt.Printf("\nLast scan: %s (%d tickers from %s posts)\n",
			humanize.Time(scan.FinishedAt), scan.TickerCount, humanize.Comma(int64(scan.PostCount)))
	}
	return nil
}
