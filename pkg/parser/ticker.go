package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/elonfeng/hypefinder/pkg/source"
)

// knownListThreshold is the size a known-ticker list must exceed before it is
// treated as authoritative. Smaller lists are ignored and any structurally
// valid, non-excluded candidate is accepted.
const knownListThreshold = 100

var tickerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$([A-Z]{1,5})\b`),                           // $AAPL
	regexp.MustCompile(`\b([A-Z]{2,5})\s+(?:STOCK|SHARES?|TICKER)\b`), // AAPL stock
	regexp.MustCompile(`\b(?:BUY|SELL|LONG|SHORT)\s+([A-Z]{2,5})\b`),   // buy AAPL
	regexp.MustCompile(`\b([A-Z]{3,5})(?:USD|BTC|ETH)\b`),              // DOGEUSD
	regexp.MustCompile(`\b(BTC|ETH|ADA|DOT|LINK|LTC|XRP|BCH|BNB|SOL|DOGE|SHIB)\b`),
}

// Extractor finds and validates ticker symbols in free text.
type Extractor struct {
	known map[string]struct{}
}

// NewExtractor creates an extractor. knownTickers only constrains validation
// when it holds more than 100 symbols.
func NewExtractor(knownTickers []string) *Extractor {
	known := make(map[string]struct{}, len(knownTickers))
	for _, t := range knownTickers {
		if t = CleanTicker(t); t != "" {
			known[t] = struct{}{}
		}
	}
	return &Extractor{known: known}
}

// ExtractTickers returns the sorted set of valid tickers mentioned in text.
func (e *Extractor) ExtractTickers(text string) []string {
	if text == "" {
		return nil
	}
	upper := strings.ToUpper(text)

	found := make(map[string]struct{})
	for _, p := range tickerPatterns {
		for _, m := range p.FindAllStringSubmatch(upper, -1) {
			t := CleanTicker(m[1])
			if e.IsValidTicker(t) {
				found[t] = struct{}{}
			}
		}
	}

	tickers := make([]string, 0, len(found))
	for t := range found {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// IsValidTicker reports whether candidate looks like a real ticker symbol.
func (e *Extractor) IsValidTicker(candidate string) bool {
	if len(candidate) < 2 || len(candidate) > 5 {
		return false
	}
	for _, r := range candidate {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	if _, excluded := excludedWords[candidate]; excluded {
		return false
	}
	if len(e.known) > knownListThreshold {
		_, ok := e.known[candidate]
		return ok
	}
	return true
}

// CleanTicker upper-cases raw and strips a leading $ and exchange suffix.
func CleanTicker(raw string) string {
	t := strings.TrimLeft(strings.ToUpper(strings.TrimSpace(raw)), "$")
	for _, suffix := range exchangeSuffixes {
		if strings.HasSuffix(t, suffix) {
			return strings.TrimSuffix(t, suffix)
		}
	}
	return t
}

// GroupPostsByTicker tags a copy of every post with each ticker it mentions.
// A post naming three tickers appears under all three.
func (e *Extractor) GroupPostsByTicker(posts []source.Post) *TickerPostGroup {
	g := NewTickerPostGroup()
	for _, p := range posts {
		for _, t := range e.ExtractTickers(p.Text) {
			tagged := p
			tagged.MentionedTicker = t
			g.Add(t, tagged)
		}
	}
	return g
}

// MentionCounts counts how many posts mention each ticker.
func (e *Extractor) MentionCounts(posts []source.Post) map[string]int {
	counts := make(map[string]int)
	for _, p := range posts {
		for _, t := range e.ExtractTickers(p.Text) {
			counts[t]++
		}
	}
	return counts
}

// FilterByMentionThreshold keeps tickers with at least minMentions mentions.
func FilterByMentionThreshold(counts map[string]int, minMentions int) map[string]int {
	out := make(map[string]int)
	for t, n := range counts {
		if n >= minMentions {
			out[t] = n
		}
	}
	return out
}

// ContextWindows returns the text around every occurrence of ticker in posts,
// radius characters on each side. Matching is case-insensitive and
// overlapping occurrences are all reported.
func ContextWindows(posts []source.Post, ticker string, radius int) []string {
	needle := strings.ToUpper(ticker)
	if needle == "" {
		return nil
	}

	var windows []string
	for _, p := range posts {
		text := p.Text
		upper := strings.ToUpper(text)
		if len(upper) != len(text) {
			// Case mapping changed byte offsets; slice the upper-cased copy.
			text = upper
		}
		for start := 0; ; {
			i := strings.Index(upper[start:], needle)
			if i < 0 {
				break
			}
			pos := start + i
			windows = append(windows, window(text, pos, pos+len(needle), radius))
			start = pos + 1
		}
	}
	return windows
}

func window(text string, from, to, radius int) string {
	lo := max(0, from-radius)
	hi := min(len(text), to+radius)
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

// TickerPostGroup maps tickers to the posts that mention them, remembering
// the order in which tickers were discovered.
type TickerPostGroup struct {
	order []string
	posts map[string][]source.Post
}

// NewTickerPostGroup returns an empty group.
func NewTickerPostGroup() *TickerPostGroup {
	return &TickerPostGroup{posts: make(map[string][]source.Post)}
}

// Add appends p under ticker.
func (g *TickerPostGroup) Add(ticker string, p source.Post) {
	if _, ok := g.posts[ticker]; !ok {
		g.order = append(g.order, ticker)
	}
	g.posts[ticker] = append(g.posts[ticker], p)
}

// Tickers returns tickers in discovery order.
func (g *TickerPostGroup) Tickers() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Posts returns the posts recorded for ticker.
func (g *TickerPostGroup) Posts(ticker string) []source.Post {
	return g.posts[ticker]
}

// Len returns the number of tickers.
func (g *TickerPostGroup) Len() int {
	return len(g.order)
}

// Filter returns a new group with the tickers for which keep is true,
// preserving discovery order.
func (g *TickerPostGroup) Filter(keep func(ticker string, posts []source.Post) bool) *TickerPostGroup {
	out := NewTickerPostGroup()
	for _, t := range g.order {
		if keep(t, g.posts[t]) {
			out.order = append(out.order, t)
			out.posts[t] = g.posts[t]
		}
	}
	return out
}
