package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/hypefinder/pkg/parser"
	"github.com/elonfeng/hypefinder/pkg/source"
)

func newTestSentiment() *SentimentScorer {
	return NewSentimentScorer(parser.NewCleaner(), DefaultConfig().Volume)
}

func TestKeywordSentiment(t *testing.T) {
	s := newTestSentiment()

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"single keyword", "bullish", 2.5},
		{"intensifier", "very bullish", 3.75},
		{"diminisher", "slightly bullish", 1.25},
		{"two word diminisher", "kind of bullish", 1.75},
		{"negation", "not bullish at all", -2.0},
		{"slang phrase", "diamond hands", 2.5},
		{"punctuation is trimmed", "bullish!!", 2.5},
		{"clamped", "scam fraud ponzi rug crash", -5.0},
		{"no keywords", "the annual meeting is tomorrow", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.KeywordSentiment(tt.text), 1e-9)
		})
	}
}

func TestKeywordSentimentSigns(t *testing.T) {
	s := newTestSentiment()

	assert.Greater(t, s.KeywordSentiment("this stock is mooning, very bullish, buy buy buy"), 0.0)
	assert.Less(t, s.KeywordSentiment("this is a scam, dump it, crash incoming"), 0.0)
	assert.LessOrEqual(t, s.KeywordSentiment("not bullish at all"), 0.0)
}

func TestKeywordSentimentLengthNormalization(t *testing.T) {
	s := newTestSentiment()

	// 20 tokens with one keyword: 2.5 / (20/10).
	text := "bullish one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen"
	assert.InDelta(t, 1.25, s.KeywordSentiment(text), 1e-9)
}

func TestPolarity(t *testing.T) {
	good, subj := Polarity("good")
	assert.InDelta(t, 0.4404, good, 1e-3)
	assert.InDelta(t, 1.0, subj, 1e-9)

	pol, _ := Polarity("not good")
	assert.Less(t, pol, 0.0)

	pol, _ = Polarity("very good")
	assert.Greater(t, pol, good)

	pol, subj = Polarity("the table")
	assert.Zero(t, pol)
	assert.Zero(t, subj)

	pol, subj = Polarity("terrible awful horrible")
	assert.Less(t, pol, -0.8)
	assert.GreaterOrEqual(t, pol, -1.0)
	assert.InDelta(t, 1.0, subj, 1e-9)

	// Finance jargon is left to the keyword table.
	pol, _ = Polarity("GME squeeze to the moon")
	assert.Zero(t, pol)
}

func TestContextSentiment(t *testing.T) {
	s := newTestSentiment()

	t.Run("no mention", func(t *testing.T) {
		r := s.ContextSentiment([]source.Post{{Text: "nothing to see"}}, "GME")
		assert.Equal(t, ContextResult{}, r)
	})

	t.Run("consistent windows give full confidence", func(t *testing.T) {
		posts := []source.Post{
			{Text: "$GME bullish rally"},
			{Text: "$GME bullish rally"},
		}
		r := s.ContextSentiment(posts, "GME")
		assert.Equal(t, 2, r.ContextCount)
		assert.Equal(t, 2, r.PostCount)
		assert.InDelta(t, 1.0, r.Confidence, 1e-9)
		assert.Greater(t, r.Score, 0.0)
	})

	t.Run("disagreeing windows lower confidence", func(t *testing.T) {
		posts := []source.Post{
			{Text: "$GME bullish rally"},
			{Text: "$GME is a scam"},
		}
		r := s.ContextSentiment(posts, "GME")
		assert.Less(t, r.Confidence, 1.0)
		assert.Greater(t, r.Confidence, 0.0)
		assert.Greater(t, r.KeywordStd, 0.0)
	})
}

func TestTrend(t *testing.T) {
	s := newTestSentiment()
	t0 := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	at := func(d time.Duration) string { return source.FormatTimestamp(t0.Add(d)) }

	bad := "$GME is a scam and a fraud"
	good := "$GME bullish rally, great"

	tests := []struct {
		name  string
		posts []source.Post
		want  Trend
	}{
		{"improving", []source.Post{
			{Text: bad, Timestamp: at(0)},
			{Text: bad, Timestamp: at(10 * time.Minute)},
			{Text: good, Timestamp: at(3 * time.Hour)},
		}, TrendImproving},
		{"declining", []source.Post{
			{Text: good, Timestamp: at(0)},
			{Text: bad, Timestamp: at(2 * time.Hour)},
		}, TrendDeclining},
		{"stable", []source.Post{
			{Text: good, Timestamp: at(0)},
			{Text: good, Timestamp: at(2 * time.Hour)},
		}, TrendStable},
		{"span under an hour", []source.Post{
			{Text: bad, Timestamp: at(0)},
			{Text: good, Timestamp: at(30 * time.Minute)},
		}, TrendNeutral},
		{"one timestamped post", []source.Post{
			{Text: bad, Timestamp: at(0)},
			{Text: good},
		}, TrendNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := s.Trend(tt.posts, "GME")
			assert.Equal(t, tt.want, r.Trend)
			if tt.want == TrendNeutral {
				assert.Zero(t, r.Strength)
			}
		})
	}
}

func TestSentimentScore(t *testing.T) {
	s := newTestSentiment()
	g := groupOf("GME",
		source.Post{Text: "$GME bullish rally", Source: source.SourceReddit},
		source.Post{Text: "$GME bullish rally", Source: source.SourceTwitter},
	)

	res := s.Score(g)
	require.Contains(t, res, "GME")
	r := res["GME"]

	assert.Equal(t, TrendNeutral, r.Trend)
	assert.Equal(t, 2, r.PostCount)
	assert.InDelta(t, r.ContextSentiment*0.5+r.WeightedSentiment*0.3, r.Score, 1e-9)
	assert.InDelta(t, 1.0, r.Confidence, 1e-9)
}
