package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/elonfeng/hypefinder/internal/metrics"
	"github.com/elonfeng/hypefinder/internal/store"
	"github.com/elonfeng/hypefinder/pkg/scorer"
	"github.com/elonfeng/hypefinder/pkg/source"
)

// maxScanPosts bounds how many stored posts one scan reads.
const maxScanPosts = 20000

// ErrUnknownSource is returned when collection is restricted to a source
// that is not configured.
var ErrUnknownSource = errors.New("unknown source")

// Engine ties collectors, the store and the hype scorer together. Collect
// persists fresh posts; Scan scores the posts of the lookback window and
// records the ranking.
type Engine struct {
	store    store.Store
	scorer   *scorer.HypeScorer
	sources  []source.Source
	lookback time.Duration
	now      func() time.Time
}

// New creates a new engine.
func New(s store.Store, hs *scorer.HypeScorer, sources []source.Source, lookback time.Duration) *Engine {
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	return &Engine{
		store:    s,
		scorer:   hs,
		sources:  sources,
		lookback: lookback,
		now:      time.Now,
	}
}

// Scorer returns the default hype scorer.
func (e *Engine) Scorer() *scorer.HypeScorer { return e.scorer }

// Sources returns the configured collectors.
func (e *Engine) Sources() []source.Source { return e.sources }

// Store returns the backing store.
func (e *Engine) Store() store.Store { return e.store }

// Collect runs the configured collectors concurrently and stores what they
// return. only restricts the run to one source when non-empty. A failing
// collector is reported in its result; a failing store aborts.
func (e *Engine) Collect(ctx context.Context, only source.SourceType) ([]source.CollectResult, error) {
	sources := e.sources
	if only != "" {
		sources = nil
		for _, src := range e.sources {
			if src.Name() == only {
				sources = append(sources, src)
			}
		}
		if len(sources) == 0 {
			return nil, fmt.Errorf("%w %q", ErrUnknownSource, only)
		}
	}

	results := source.CollectAll(ctx, sources)
	for _, r := range results {
		metrics.RecordCollect(string(r.Source), len(r.Posts), r.Err)
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("source", string(r.Source)).Msg("collect failed")
		}
		if err := e.store.UpsertPosts(ctx, r.Posts); err != nil {
			return results, fmt.Errorf("store %s posts: %w", r.Source, err)
		}
		log.Info().
			Str("source", string(r.Source)).
			Int("posts", len(r.Posts)).
			Dur("took", r.Duration).
			Msg("collected")
	}
	return results, nil
}

// ScanOpts customizes a single scan.
type ScanOpts struct {
	Lookback time.Duration      // 0 uses the engine default
	NoSave   bool               // score without recording the scan
	Scorer   *scorer.HypeScorer // overrides the default scorer when set
}

// ScanReport is the outcome of one scan.
type ScanReport struct {
	Scan    store.Scan          `json:"scan"`
	Results []scorer.HypeResult `json:"results"`
	Saved   bool                `json:"saved"`
}

// Scan scores the posts collected within the lookback window.
func (e *Engine) Scan(ctx context.Context, opts ScanOpts) (*ScanReport, error) {
	report, err := e.scan(ctx, opts)
	if err != nil {
		metrics.RecordScan(0, 0, 0, err)
		return nil, err
	}

	var top float64
	if len(report.Results) > 0 {
		top = report.Results[0].HypeScore
	}
	metrics.RecordScan(report.Scan.FinishedAt.Sub(report.Scan.StartedAt), len(report.Results), top, nil)
	return report, nil
}

func (e *Engine) scan(ctx context.Context, opts ScanOpts) (*ScanReport, error) {
	hs := e.scorer
	if opts.Scorer != nil {
		hs = opts.Scorer
	}
	lookback := e.lookback
	if opts.Lookback > 0 {
		lookback = opts.Lookback
	}

	started := e.now().UTC()
	posts, err := e.store.ListPosts(ctx, store.ListOpts{
		Since: started.Add(-lookback),
		Limit: maxScanPosts,
	})
	if err != nil {
		return nil, fmt.Errorf("list recent posts: %w", err)
	}

	results := hs.ComputeHypeScores(posts)
	cfg := hs.Config()

	report := &ScanReport{
		Scan: store.Scan{
			ID:              uuid.NewString(),
			StartedAt:       started,
			FinishedAt:      e.now().UTC(),
			PostCount:       len(posts),
			TickerCount:     len(results),
			VolumeWeight:    cfg.VolumeWeight,
			SentimentWeight: cfg.SentimentWeight,
		},
		Results: results,
	}

	log.Info().
		Str("scan", report.Scan.ID).
		Int("posts", len(posts)).
		Int("tickers", len(results)).
		Dur("lookback", lookback).
		Msg("scan complete")

	if opts.NoSave {
		return report, nil
	}
	if err := e.store.SaveScan(ctx, &report.Scan, results); err != nil {
		return nil, fmt.Errorf("save scan: %w", err)
	}
	report.Saved = true
	return report, nil
}

// Latest returns the most recent saved scan with its results.
func (e *Engine) Latest(ctx context.Context) (*ScanReport, error) {
	scan, err := e.store.LatestScan(ctx)
	if err != nil {
		return nil, err
	}
	results, err := e.store.ListResults(ctx, scan.ID)
	if err != nil {
		return nil, err
	}
	// Results saved before they carried their weights take them from the scan.
	for i := range results {
		if results[i].VolumeWeight == 0 && results[i].SentimentWeight == 0 {
			results[i].VolumeWeight = scan.VolumeWeight
			results[i].SentimentWeight = scan.SentimentWeight
		}
	}
	return &ScanReport{Scan: *scan, Results: results, Saved: true}, nil
}
