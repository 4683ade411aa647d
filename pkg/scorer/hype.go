// Package scorer ranks tickers by hype, a blend of how much and how
// positively they are being discussed.
package scorer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/elonfeng/hypefinder/pkg/parser"
	"github.com/elonfeng/hypefinder/pkg/source"
)

const (
	samplePostCount   = 3
	samplePostMaxText = 200
)

// SamplePost is a trimmed post shown alongside a result.
type SamplePost struct {
	Text            string            `json:"text"`
	Source          source.SourceType `json:"source"`
	EngagementScore float64           `json:"engagement_score"`
	URL             string            `json:"url"`
	Timestamp       string            `json:"timestamp"`
}

// HypeResult is the ranked outcome for one ticker.
type HypeResult struct {
	Ticker                 string            `json:"ticker"`
	HypeScore              float64           `json:"hype_score"`
	BaseScore              float64           `json:"base_score"`
	VolumeWeight           float64           `json:"volume_weight"`
	SentimentWeight        float64           `json:"sentiment_weight"`
	VolumeScore            float64           `json:"volume_score"`
	SentimentScore         float64           `json:"sentiment_score"`
	SentimentConfidence    float64           `json:"sentiment_confidence"`
	MentionCount           int               `json:"mention_count"`
	Rank                   int               `json:"rank"`
	Volume                 VolumeMetrics     `json:"volume_metrics"`
	SentimentTrend         Trend             `json:"sentiment_trend"`
	SentimentTrendStrength float64           `json:"sentiment_trend_strength"`
	KeywordSentiment       float64           `json:"keyword_sentiment"`
	PolaritySentiment      float64           `json:"polarity_sentiment"`
	Platforms              []string          `json:"platforms"`
	PlatformCount          int               `json:"platform_count"`
	Modifiers              []AppliedModifier `json:"modifiers"`
	SamplePosts            []SamplePost      `json:"sample_posts"`
	Timestamp              time.Time         `json:"timestamp"`
}

// HypeScorer runs the full scan: grouping, volume and sentiment scoring,
// modifiers and ranking. It keeps no state between scans and is safe for
// concurrent use.
type HypeScorer struct {
	cfg       Config
	extractor *parser.Extractor
	volume    *VolumeScorer
	sentiment *SentimentScorer
	chain     []modifier
	now       func() time.Time
	log       zerolog.Logger
}

// Option customizes a HypeScorer.
type Option func(*options)

type options struct {
	now          func() time.Time
	knownTickers []string
	logger       *zerolog.Logger
}

// WithClock sets the time source used for recency, velocity and result
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithKnownTickers constrains ticker validation to the given symbols once the
// list holds more than 100 entries.
func WithKnownTickers(tickers []string) Option {
	return func(o *options) { o.knownTickers = tickers }
}

// WithLogger sets the logger. The global zerolog logger is used otherwise.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// New creates a hype scorer. It returns an error wrapping ErrInvalidConfig
// when cfg fails validation.
func New(cfg Config, opts ...Option) (*HypeScorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new hype scorer: %w", err)
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	s := &HypeScorer{
		cfg:       cfg,
		extractor: parser.NewExtractor(o.knownTickers),
		volume:    NewVolumeScorer(cfg.Volume),
		sentiment: NewSentimentScorer(parser.NewCleaner(), cfg.Volume),
		chain:     modifierChain(cfg),
		now:       o.now,
		log:       logger.With().Str("component", "scorer").Logger(),
	}
	s.log.Debug().
		Float64("volume_weight", cfg.VolumeWeight).
		Float64("sentiment_weight", cfg.SentimentWeight).
		Msg("hype scorer initialized")
	return s, nil
}

// Config returns the configuration the scorer was built with.
func (s *HypeScorer) Config() Config {
	return s.cfg
}

// Extractor returns the ticker extractor used for grouping.
func (s *HypeScorer) Extractor() *parser.Extractor {
	return s.extractor
}

// ComputeHypeScores scores every ticker mentioned in posts and returns the
// top N ranked by hype score. Empty input, no tickers, or no ticker with
// enough mentions all give an empty result.
func (s *HypeScorer) ComputeHypeScores(posts []source.Post) []HypeResult {
	if len(posts) == 0 {
		s.log.Warn().Msg("no posts provided for hype scoring")
		return []HypeResult{}
	}
	now := s.now().UTC()
	s.log.Info().Int("posts", len(posts)).Msg("calculating hype scores")

	// 1. Group posts by the tickers they mention.
	all := s.extractor.GroupPostsByTicker(posts)
	if all.Len() == 0 {
		s.log.Warn().Msg("no tickers found in posts")
		return []HypeResult{}
	}

	// 2. Drop tickers below the mention threshold.
	group := all.Filter(func(ticker string, ps []source.Post) bool {
		if len(ps) < s.cfg.MinMentions {
			s.log.Debug().Str("ticker", ticker).Int("mentions", len(ps)).Msg("below mention threshold")
			return false
		}
		return true
	})
	if group.Len() == 0 {
		s.log.Warn().Int("min_mentions", s.cfg.MinMentions).Int("tickers", all.Len()).Msg("no tickers with enough mentions")
		return []HypeResult{}
	}
	s.log.Info().Int("tickers", group.Len()).Int("found", all.Len()).Msg("tickers after mention filter")

	// 3. Volume and sentiment are independent; score them concurrently.
	var (
		volume    map[string]VolumeMetrics
		sentiment map[string]SentimentResult
		wg        sync.WaitGroup
	)
	wg.Go(func() {
		volume = s.volume.Score(group, now)
	})
	wg.Go(func() {
		sentiment = s.sentiment.Score(group)
	})
	wg.Wait()

	// 4. Combine, filter on confidence and apply modifiers.
	results := make([]HypeResult, 0, group.Len())
	for _, t := range group.Tickers() {
		tickerPosts := group.Posts(t)
		vol := volume[t]
		sent := sentiment[t]

		if sent.Confidence < s.cfg.MinSentimentConfidence {
			s.log.Debug().Str("ticker", t).Float64("confidence", sent.Confidence).Msg("low sentiment confidence")
			continue
		}

		base := vol.Score*s.cfg.VolumeWeight + sent.Score*s.cfg.SentimentWeight
		final, applied := applyScoreModifiers(s.chain, s.cfg.Modifiers, base, modifierInput{
			posts:     tickerPosts,
			volume:    vol,
			sentiment: sent,
			now:       now,
		})

		platforms := sortedKeys(vol.PlatformDistribution)
		results = append(results, HypeResult{
			Ticker:                 t,
			HypeScore:              final,
			BaseScore:              base,
			VolumeWeight:           s.cfg.VolumeWeight,
			SentimentWeight:        s.cfg.SentimentWeight,
			VolumeScore:            vol.Score,
			SentimentScore:         sent.Score,
			SentimentConfidence:    sent.Confidence,
			MentionCount:           len(tickerPosts),
			Volume:                 vol,
			SentimentTrend:         sent.Trend,
			SentimentTrendStrength: sent.TrendStrength,
			KeywordSentiment:       sent.KeywordSentiment,
			PolaritySentiment:      sent.PolaritySentiment,
			Platforms:              platforms,
			PlatformCount:          len(platforms),
			Modifiers:              applied,
			SamplePosts:            samplePosts(tickerPosts, samplePostCount),
			Timestamp:              now,
		})
	}

	// 5. Rank. Ties keep discovery order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].HypeScore > results[j].HypeScore
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	if len(results) > s.cfg.TopN {
		results = results[:s.cfg.TopN]
	}

	s.log.Info().Int("results", len(results)).Msg("hype scores generated")
	return results
}

// samplePosts picks the n most engaged posts, truncating long text.
func samplePosts(posts []source.Post, n int) []SamplePost {
	sorted := make([]source.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EngagementScore > sorted[j].EngagementScore
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]SamplePost, 0, len(sorted))
	for _, p := range sorted {
		out = append(out, SamplePost{
			Text:            truncateText(p.Text, samplePostMaxText),
			Source:          p.Source,
			EngagementScore: p.EngagementScore,
			URL:             p.URL,
			Timestamp:       p.Timestamp,
		})
	}
	return out
}

func truncateText(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
