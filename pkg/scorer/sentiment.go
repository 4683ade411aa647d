package scorer

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/elonfeng/hypefinder/pkg/parser"
	"github.com/elonfeng/hypefinder/pkg/source"
)

// Trend classifies how sentiment moved across a ticker's time span.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendNeutral   Trend = "neutral"
)

const (
	contextRadius       = 100
	modifierWindow      = 3
	negatedScale        = 0.8
	keywordClamp        = 5.0
	keywordContextShare = 0.7
	polarityScale       = 3.0
	trendThreshold      = 0.2
	minTrendSpan        = time.Hour

	contextShare  = 0.5
	weightedShare = 0.3
	trendShare    = 0.2
)

// Financial keyword weights. Phrases produced by slang normalization are
// listed so that "diamond hands" still scores after it becomes
// "holding strong".
var sentimentKeywords = map[string]float64{
	// strong positive
	"moon": 3.0, "rocket": 3.0, "bullish": 2.5, "bull": 2.0,
	"buy": 2.0, "long": 2.0, "calls": 1.5, "pump": 2.0,
	"diamond hands": 2.5, "hold": 1.5, "hodl": 2.0,
	"breakout": 2.0, "rally": 2.0, "surge": 2.5,
	"gains": 2.0, "profit": 2.0, "up": 1.5, "rise": 1.5,
	"green": 1.5, "winning": 2.0, "success": 2.0,
	"strong": 1.8, "solid": 1.8, "good": 1.5, "great": 2.0,
	"excellent": 2.5, "amazing": 2.5, "love": 2.0,
	"bullrun": 2.5, "mooning": 3.0, "lambo": 2.5,
	"tendies": 2.0, "printing": 2.0, "brrr": 1.5,
	"price increase": 3.0, "price surge": 2.5, "profits": 2.0,
	"holding strong": 2.5,

	// moderate positive
	"positive": 1.5, "optimistic": 1.8, "confident": 1.8,
	"potential": 1.2, "promising": 1.8, "opportunity": 1.5,
	"undervalued": 1.8, "cheap": 1.2, "dip": 1.0,
	"support": 1.2, "bounce": 1.5, "recovery": 1.8,
	"upgrade": 1.8, "beat": 1.5, "outperform": 2.0,
	"momentum": 1.5, "volume": 1.2, "interest": 1.0,

	// strong negative
	"crash": -3.0, "dump": -2.5, "bearish": -2.5, "bear": -2.0,
	"sell": -2.0, "short": -2.0, "puts": -1.5, "collapse": -3.0,
	"paper hands": -2.0, "panic": -2.5, "fear": -2.0,
	"drop": -2.0, "fall": -2.0, "plunge": -2.5, "tank": -2.5,
	"losses": -2.0, "loss": -2.0, "down": -1.5, "red": -1.5,
	"bad": -1.5, "terrible": -2.5, "awful": -2.5, "hate": -2.0,
	"disaster": -3.0, "dead": -2.5, "rekt": -2.5, "rug": -3.0,
	"scam": -3.0, "fraud": -3.0, "ponzi": -3.0,
	"selling quickly": -2.0, "investment losses": -2.0, "stuck investor": -1.5,

	// moderate negative
	"negative": -1.5, "pessimistic": -1.8, "concerned": -1.5,
	"worried": -1.8, "doubt": -1.5, "uncertain": -1.2,
	"overvalued": -1.8, "expensive": -1.2, "risky": -1.5,
	"resistance": -1.2, "rejection": -1.5, "decline": -1.8,
	"downgrade": -1.8, "miss": -1.5, "underperform": -2.0,
	"weak": -1.5, "poor": -1.8, "disappointing": -2.0,
}

// Multipliers applied to a keyword when they appear within three tokens of it.
var sentimentModifiers = map[string]float64{
	// intensifiers
	"very": 1.5, "extremely": 2.0, "really": 1.3, "super": 1.8,
	"incredibly": 2.0, "absolutely": 1.8, "totally": 1.5,
	"completely": 1.8, "highly": 1.5, "massively": 2.0,

	// diminishers
	"slightly": 0.5, "somewhat": 0.7, "little": 0.6, "bit": 0.6,
	"kind of": 0.7, "sort of": 0.7, "maybe": 0.5, "possibly": 0.6,
}

var sentimentNegators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nothing": {}, "neither": {},
	"nowhere": {}, "nobody": {}, "hardly": {}, "scarcely": {}, "barely": {},
	"rarely": {},
}

// ContextResult is the sentiment measured in the text surrounding a ticker's
// mentions.
type ContextResult struct {
	Score             float64 `json:"score"`
	Confidence        float64 `json:"confidence"`
	KeywordSentiment  float64 `json:"keyword_sentiment"`
	PolaritySentiment float64 `json:"polarity_sentiment"`
	KeywordStd        float64 `json:"keyword_std"`
	PolarityStd       float64 `json:"polarity_std"`
	PostCount         int     `json:"post_count"`
	ContextCount      int     `json:"context_count"`
}

// TrendResult compares sentiment in the early and late halves of a ticker's
// time span.
type TrendResult struct {
	Trend    Trend   `json:"trend"`
	Strength float64 `json:"strength"`
	Early    float64 `json:"early"`
	Late     float64 `json:"late"`
	Change   float64 `json:"change"`
}

// SentimentResult is the combined sentiment for one ticker.
type SentimentResult struct {
	Score             float64 `json:"score"`
	Confidence        float64 `json:"confidence"`
	Trend             Trend   `json:"trend"`
	TrendStrength     float64 `json:"trend_strength"`
	ContextSentiment  float64 `json:"context_sentiment"`
	WeightedSentiment float64 `json:"weighted_sentiment"`
	KeywordSentiment  float64 `json:"keyword_sentiment"`
	PolaritySentiment float64 `json:"polarity_sentiment"`
	PostCount         int     `json:"post_count"`
	ContextCount      int     `json:"context_count"`
}

// SentimentScorer rates how positively each ticker is being discussed.
type SentimentScorer struct {
	cleaner *parser.Cleaner
	volume  VolumeConfig
}

// NewSentimentScorer creates a sentiment scorer. Per-post keyword sentiment
// is averaged with the source weights of volume.
func NewSentimentScorer(cleaner *parser.Cleaner, volume VolumeConfig) *SentimentScorer {
	return &SentimentScorer{cleaner: cleaner, volume: volume}
}

// KeywordSentiment scores text against the financial keyword table. Two-word
// phrases win over single words. The sum is normalized per ten words and
// clamped to [-5, 5].
func (s *SentimentScorer) KeywordSentiment(text string) float64 {
	if text == "" {
		return 0
	}
	words := tokenize(s.cleaner.CleanForSentiment(text, true))
	if len(words) == 0 {
		return 0
	}

	var total float64
	for i := 0; i < len(words); i++ {
		if i+1 < len(words) {
			if w, ok := sentimentKeywords[words[i]+" "+words[i+1]]; ok {
				total += adjustForContext(words, i, w)
				i++
				continue
			}
		}
		if w, ok := sentimentKeywords[words[i]]; ok {
			total += adjustForContext(words, i, w)
		}
	}

	normalized := total / math.Max(1, float64(len(words))/10)
	return clamp(normalized, -keywordClamp, keywordClamp)
}

// adjustForContext adjusts the keyword at pos by the negators, intensifiers
// and diminishers within three tokens on either side.
func adjustForContext(words []string, pos int, score float64) float64 {
	lo := max(0, pos-modifierWindow)
	hi := min(len(words), pos+modifierWindow+1)
	window := words[lo:hi]

	for _, w := range window {
		if _, ok := sentimentNegators[w]; ok {
			score = -score * negatedScale
			break
		}
	}
	for i, w := range window {
		if m, ok := sentimentModifiers[w]; ok {
			score *= m
		}
		if i+1 < len(window) {
			if m, ok := sentimentModifiers[w+" "+window[i+1]]; ok {
				score *= m
			}
		}
	}
	return score
}

// tokenize lower-cases and splits on whitespace, trimming punctuation and
// symbols from both ends of every token.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

// ContextSentiment scores the text around each mention of ticker. Keyword
// and polarity scores are averaged over all windows and blended 70/30, with
// polarity stretched to the keyword range. Confidence falls as the window
// scores disagree.
func (s *SentimentScorer) ContextSentiment(posts []source.Post, ticker string) ContextResult {
	windows := parser.ContextWindows(posts, ticker, contextRadius)
	if len(windows) == 0 {
		return ContextResult{}
	}

	keyword := make([]float64, len(windows))
	polarity := make([]float64, len(windows))
	for i, w := range windows {
		keyword[i] = s.KeywordSentiment(w)
		polarity[i], _ = Polarity(w)
	}

	r := ContextResult{
		KeywordSentiment:  mean(keyword),
		PolaritySentiment: mean(polarity),
		KeywordStd:        stddev(keyword),
		PolarityStd:       stddev(polarity),
		PostCount:         len(posts),
		ContextCount:      len(windows),
	}
	r.Score = r.KeywordSentiment*keywordContextShare + r.PolaritySentiment*polarityScale*(1-keywordContextShare)
	r.Confidence = 1 / (1 + r.KeywordStd + r.PolarityStd)
	return r
}

// Trend splits the timestamped posts at the midpoint of their span and
// compares the context sentiment of the two halves. Spans shorter than an
// hour, or fewer than two timestamped posts, are neutral.
func (s *SentimentScorer) Trend(posts []source.Post, ticker string) TrendResult {
	type stamped struct {
		at   time.Time
		post source.Post
	}
	var timed []stamped
	for _, p := range posts {
		if ts, ok := p.Time(); ok {
			timed = append(timed, stamped{at: ts, post: p})
		}
	}
	if len(timed) < 2 {
		return TrendResult{Trend: TrendNeutral}
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].at.Before(timed[j].at) })

	first, last := timed[0].at, timed[len(timed)-1].at
	span := last.Sub(first)
	if span < minTrendSpan {
		return TrendResult{Trend: TrendNeutral}
	}
	mid := first.Add(span / 2)

	var early, late []source.Post
	for _, t := range timed {
		if t.at.After(mid) {
			late = append(late, t.post)
		} else {
			early = append(early, t.post)
		}
	}

	r := TrendResult{
		Early: s.ContextSentiment(early, ticker).Score,
		Late:  s.ContextSentiment(late, ticker).Score,
	}
	r.Change = r.Late - r.Early
	r.Strength = math.Abs(r.Change)
	switch {
	case r.Change > trendThreshold:
		r.Trend = TrendImproving
	case r.Change < -trendThreshold:
		r.Trend = TrendDeclining
	default:
		r.Trend = TrendStable
	}
	return r
}

// Score computes the combined sentiment of every ticker in the group.
func (s *SentimentScorer) Score(group *parser.TickerPostGroup) map[string]SentimentResult {
	results := make(map[string]SentimentResult, group.Len())
	for _, t := range group.Tickers() {
		results[t] = s.scoreTicker(group.Posts(t), t)
	}
	return results
}

func (s *SentimentScorer) scoreTicker(posts []source.Post, ticker string) SentimentResult {
	if len(posts) == 0 {
		return SentimentResult{Trend: TrendNeutral}
	}

	ctx := s.ContextSentiment(posts, ticker)
	trend := s.Trend(posts, ticker)

	var weighted, totalWeight float64
	for _, p := range posts {
		w := s.volume.sourceWeight(p.Source)
		weighted += s.KeywordSentiment(p.Text) * w
		totalWeight += w
	}
	if totalWeight > 0 {
		weighted /= totalWeight
	}

	return SentimentResult{
		Score:             ctx.Score*contextShare + weighted*weightedShare + trendSign(trend.Trend)*trend.Strength*trendShare,
		Confidence:        ctx.Confidence,
		Trend:             trend.Trend,
		TrendStrength:     trend.Strength,
		ContextSentiment:  ctx.Score,
		WeightedSentiment: weighted,
		KeywordSentiment:  ctx.KeywordSentiment,
		PolaritySentiment: ctx.PolaritySentiment,
		PostCount:         len(posts),
		ContextCount:      ctx.ContextCount,
	}
}

func trendSign(t Trend) float64 {
	switch t {
	case TrendImproving:
		return 1
	case TrendDeclining:
		return -1
	default:
		return 0
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation; fewer than two values give 0.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
