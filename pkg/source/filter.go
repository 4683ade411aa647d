package source

import "strings"

// DefaultFinanceKeywords is the base set used for spotting market talk.
var DefaultFinanceKeywords = []string{
	"buy", "sell", "hold", "moon", "rocket", "bullish", "bearish",
	"calls", "puts", "options", "yolo", "diamond hands", "paper hands",
	"squeeze", "pump", "dump", "hodl", "dip", "rally", "ath",
	"resistance", "support", "breakout", "earnings", "dd",
	"stock", "shares", "ticker",
}

// DefaultCryptoKeywords flags crypto discussion.
var DefaultCryptoKeywords = []string{
	"crypto", "bitcoin", "btc", "eth", "ethereum", "altcoin", "defi",
}

// Filter holds keyword lists for finance content matching.
type Filter struct {
	keywords []string
	exclude  []string
}

// NewFilter creates a filter with the default finance and crypto keywords
// plus extras.
func NewFilter(extraKeywords, excludeKeywords []string) *Filter {
	keywords := make([]string, 0, len(DefaultFinanceKeywords)+len(DefaultCryptoKeywords)+len(extraKeywords))
	keywords = append(keywords, DefaultFinanceKeywords...)
	keywords = append(keywords, DefaultCryptoKeywords...)
	keywords = append(keywords, extraKeywords...)

	// Lowercase all keywords for case-insensitive matching.
	for i, kw := range keywords {
		keywords[i] = strings.ToLower(kw)
	}

	exclude := make([]string, len(excludeKeywords))
	for i, kw := range excludeKeywords {
		exclude[i] = strings.ToLower(kw)
	}

	return &Filter{keywords: keywords, exclude: exclude}
}

// MatchesFinance returns true if text looks like market discussion: it
// carries a $ sign or any finance or crypto keyword, and no excluded word.
// Matching is substring based, so "dd" also hits "added".
func (f *Filter) MatchesFinance(text string) bool {
	lower := strings.ToLower(text)

	for _, ex := range f.exclude {
		if strings.Contains(lower, ex) {
			return false
		}
	}

	if strings.Contains(lower, "$") {
		return true
	}
	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
