package scorer

// Summary aggregates a ranked result set.
type Summary struct {
	TotalTickers               int            `json:"total_tickers"`
	TotalMentions              int            `json:"total_mentions"`
	AvgHypeScore               float64        `json:"avg_hype_score"`
	AvgSentimentScore          float64        `json:"avg_sentiment_score"`
	AvgVolumeScore             float64        `json:"avg_volume_score"`
	TopTicker                  string         `json:"top_ticker,omitempty"`
	TopHypeScore               float64        `json:"top_hype_score"`
	PlatformDistribution       map[string]int `json:"platform_distribution"`
	SentimentTrendDistribution map[Trend]int  `json:"sentiment_trend_distribution"`
	VolumeWeight               float64        `json:"volume_weight"`
	SentimentWeight            float64        `json:"sentiment_weight"`
}

// Summarize computes totals and means over results, which are expected in
// rank order. Platform distribution counts tickers per platform. Weights come
// from the results themselves; the scorer's own weights are reported only for
// an empty set.
func (s *HypeScorer) Summarize(results []HypeResult) Summary {
	sum := Summary{
		PlatformDistribution:       make(map[string]int),
		SentimentTrendDistribution: make(map[Trend]int),
		VolumeWeight:               s.cfg.VolumeWeight,
		SentimentWeight:            s.cfg.SentimentWeight,
	}
	if len(results) == 0 {
		return sum
	}

	var hype, sentiment, volume float64
	for _, r := range results {
		sum.TotalMentions += r.MentionCount
		hype += r.HypeScore
		sentiment += r.SentimentScore
		volume += r.VolumeScore
		for _, p := range r.Platforms {
			sum.PlatformDistribution[p]++
		}
		sum.SentimentTrendDistribution[r.SentimentTrend]++
	}

	n := float64(len(results))
	sum.VolumeWeight = results[0].VolumeWeight
	sum.SentimentWeight = results[0].SentimentWeight
	sum.TotalTickers = len(results)
	sum.AvgHypeScore = hype / n
	sum.AvgSentimentScore = sentiment / n
	sum.AvgVolumeScore = volume / n
	sum.TopTicker = results[0].Ticker
	sum.TopHypeScore = results[0].HypeScore
	return sum
}
