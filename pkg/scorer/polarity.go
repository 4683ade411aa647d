package scorer

import (
	"sync"

	"github.com/jonreiter/govader"
)

// vader is built on first use; loading the lexicon is the expensive part and
// the analyzer is read-only afterwards.
var vader = sync.OnceValue(govader.NewSentimentIntensityAnalyzer)

// Polarity scores text with the general-purpose VADER lexicon, independent of
// the financial keyword table. polarity is the compound score in [-1,1].
// subjectivity is the share of the text carrying positive or negative
// valence, in [0,1]. Text with no sentiment-bearing words scores (0, 0).
func Polarity(text string) (polarity, subjectivity float64) {
	s := vader().PolarityScores(text)
	return clamp(s.Compound, -1, 1), clamp(s.Positive+s.Negative, 0, 1)
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}
