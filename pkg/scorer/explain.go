package scorer

import (
	"fmt"
	"strings"
)

// Explain renders a human-readable breakdown of how r was scored. It formats
// fields of r only, so a stored result explains the same way under any later
// configuration.
func Explain(ticker string, r HypeResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hype Score Breakdown for $%s:\n", ticker)
	fmt.Fprintf(&b, "  Final Score: %.3f (Rank #%d)\n", r.HypeScore, r.Rank)
	fmt.Fprintf(&b, "  Base Score: %.3f\n", r.BaseScore)
	b.WriteString("\n")

	fmt.Fprintf(&b, "  Volume Component: %.3f × %g = %.3f\n",
		r.VolumeScore, r.VolumeWeight, r.VolumeScore*r.VolumeWeight)
	fmt.Fprintf(&b, "    - Raw mentions: %d\n", r.MentionCount)
	fmt.Fprintf(&b, "    - Velocity: %.2f mentions/hour\n", r.Volume.VelocityPerHour)
	fmt.Fprintf(&b, "    - Spike ratio: %.2fx\n", r.Volume.SpikeRatio)
	fmt.Fprintf(&b, "    - Cross-platform boost: %.2fx\n", r.Volume.CrossPlatformBoost)
	b.WriteString("\n")

	fmt.Fprintf(&b, "  Sentiment Component: %.3f × %g = %.3f\n",
		r.SentimentScore, r.SentimentWeight, r.SentimentScore*r.SentimentWeight)
	fmt.Fprintf(&b, "    - Keyword sentiment: %.3f\n", r.KeywordSentiment)
	fmt.Fprintf(&b, "    - Polarity sentiment: %.3f\n", r.PolaritySentiment)
	fmt.Fprintf(&b, "    - Confidence: %.3f\n", r.SentimentConfidence)
	fmt.Fprintf(&b, "    - Trend: %s (strength %.3f)\n", r.SentimentTrend, r.SentimentTrendStrength)
	b.WriteString("\n")

	if len(r.Modifiers) > 0 {
		b.WriteString("  Modifiers:\n")
		for _, m := range r.Modifiers {
			fmt.Fprintf(&b, "    - %s: %.3fx\n", m.Name, m.Factor)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "  Platforms: %s (%d total)", strings.Join(r.Platforms, ", "), r.PlatformCount)
	return b.String()
}
