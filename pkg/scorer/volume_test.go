package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/hypefinder/pkg/parser"
	"github.com/elonfeng/hypefinder/pkg/source"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) string {
	return source.FormatTimestamp(testNow.Add(-d))
}

func groupOf(ticker string, posts ...source.Post) *parser.TickerPostGroup {
	g := parser.NewTickerPostGroup()
	for _, p := range posts {
		g.Add(ticker, p)
	}
	return g
}

func TestVolumeWeightedAndTimeWeighted(t *testing.T) {
	v := NewVolumeScorer(DefaultConfig().Volume)
	g := groupOf("GME",
		source.Post{Source: source.SourceReddit, EngagementScore: 100, Timestamp: ago(0), Author: "a"},
		source.Post{Source: source.SourceTwitter, Timestamp: ago(2 * time.Hour), Author: "b"},
		source.Post{Source: "mastodon", Author: "a"},
	)

	m := v.Score(g, testNow)["GME"]

	assert.Equal(t, 3, m.RawMentions)
	// reddit 1.2*(1+0.3) + twitter 1.0 + unknown 1.0
	assert.InDelta(t, 1.56+1.0+1.0, m.WeightedVolume, 1e-9)
	// 0.9^2 decay on the twitter post; the untimed post keeps full weight.
	assert.InDelta(t, 1.56+0.81+1.0, m.TimeWeightedVolume, 1e-9)
	assert.InDelta(t, 100, m.TotalEngagement, 1e-9)
	assert.Equal(t, 2, m.UniqueAuthors)
	assert.Equal(t, map[string]int{"reddit": 1, "twitter": 1, "mastodon": 1}, m.PlatformDistribution)
	assert.InDelta(t, 1.4, m.CrossPlatformBoost, 1e-9)
}

func TestVolumeVelocityAndSpike(t *testing.T) {
	v := NewVolumeScorer(DefaultConfig().Volume)

	t.Run("velocity counts the last four hours", func(t *testing.T) {
		g := groupOf("GME",
			source.Post{Timestamp: ago(1 * time.Hour)},
			source.Post{Timestamp: ago(3 * time.Hour)},
			source.Post{Timestamp: ago(5 * time.Hour)},
			source.Post{Timestamp: "not a time"},
		)
		m := v.Score(g, testNow)["GME"]
		assert.InDelta(t, 0.5, m.VelocityPerHour, 1e-9)
	})

	t.Run("spike compares peak hour with mean hour", func(t *testing.T) {
		g := groupOf("GME",
			source.Post{Timestamp: "2024-03-01T11:05:00Z"},
			source.Post{Timestamp: "2024-03-01T11:20:00Z"},
			source.Post{Timestamp: "2024-03-01T11:40:00Z"},
			source.Post{Timestamp: "2024-03-01T08:15:00Z"},
		)
		m := v.Score(g, testNow)["GME"]
		assert.InDelta(t, 1.5, m.SpikeRatio, 1e-9)
	})

	t.Run("single hour has no spike", func(t *testing.T) {
		g := groupOf("GME",
			source.Post{Timestamp: "2024-03-01T11:05:00Z"},
			source.Post{Timestamp: "2024-03-01T11:20:00Z"},
		)
		m := v.Score(g, testNow)["GME"]
		assert.Zero(t, m.SpikeRatio)
	})
}

func TestVolumeNormalization(t *testing.T) {
	v := NewVolumeScorer(DefaultConfig().Volume)
	g := parser.NewTickerPostGroup()
	for i := 0; i < 6; i++ {
		g.Add("GME", source.Post{Source: source.SourceReddit, Timestamp: ago(time.Duration(i) * time.Hour), EngagementScore: 50})
	}
	for i := 0; i < 3; i++ {
		g.Add("AMC", source.Post{Source: source.SourceReddit, Timestamp: ago(time.Duration(i*3) * time.Hour)})
	}
	g.Add("TSLA", source.Post{Source: source.SourceReddit, Timestamp: ago(10 * time.Hour)})

	metrics := v.Score(g, testNow)
	require.Len(t, metrics, 3)

	for ticker, m := range metrics {
		for _, n := range []float64{m.NormRaw, m.NormWeighted, m.NormTimeWeighted, m.NormVelocity, m.NormSpike} {
			assert.GreaterOrEqual(t, n, 0.0, ticker)
			assert.LessOrEqual(t, n, 1.0, ticker)
		}
		assert.LessOrEqual(t, m.Score, m.CrossPlatformBoost, ticker)
	}
	assert.Equal(t, 1.0, metrics["GME"].NormRaw)
	assert.Equal(t, 0.0, metrics["TSLA"].NormRaw)
}

func TestVolumeSingleTickerNormalizesToOne(t *testing.T) {
	v := NewVolumeScorer(DefaultConfig().Volume)

	single := v.Score(groupOf("GME", source.Post{Source: source.SourceReddit}), testNow)["GME"]
	assert.InDelta(t, 1.0, single.Score, 1e-9)

	cross := v.Score(groupOf("GME",
		source.Post{Source: source.SourceReddit},
		source.Post{Source: source.SourceTwitter},
	), testNow)["GME"]
	assert.InDelta(t, 1.2, cross.CrossPlatformBoost, 1e-9)
	assert.InDelta(t, 1.2, cross.Score, 1e-9)
}

func TestVolumeEmptyGroup(t *testing.T) {
	v := NewVolumeScorer(DefaultConfig().Volume)
	assert.Empty(t, v.Score(parser.NewTickerPostGroup(), testNow))
}
