// Package parser turns raw social text into analyzable strings and finds the
// ticker symbols it talks about.
package parser

import (
	"html"
	"regexp"
	"strings"
)

var (
	urlPattern          = regexp.MustCompile(`https?://[^\s<>"]+`)
	mentionPattern      = regexp.MustCompile(`@\w+`)
	hashtagPattern      = regexp.MustCompile(`#\w+`)
	emailPattern        = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern        = regexp.MustCompile(`\+?[1-9]?[0-9]{7,14}`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	punctuationRun      = regexp.MustCompile(`[!?.]{3,}`)
	cashtagPattern      = regexp.MustCompile(`\$[A-Z]{1,5}\b`)
	redditQuotePattern  = regexp.MustCompile(`(?m)^\s*(?:&gt;|>).*$`)
	redditEditPattern   = regexp.MustCompile(`(?im)\*?Edit\s*:.*$`)
	sentenceBoundary    = regexp.MustCompile(`[.!?]+`)
	minSentenceLength   = 10
	defaultSlangEntries = [][2]string{
		{"hodl", "hold"},
		{"stonks", "stocks"},
		{"tendies", "profits"},
		{"diamond hands", "holding strong"},
		{"paper hands", "selling quickly"},
		{"moon", "price increase"},
		{"lambo", "profits"},
		{"ape", "investor"},
		{"retard", "investor"},
		{"autist", "investor"},
		{"yolo", "risky investment"},
		{"fomo", "fear of missing out"},
		{"dd", "due diligence"},
		{"gains", "profits"},
		{"loss porn", "investment losses"},
		{"bag holder", "stuck investor"},
		{"squeeze", "price surge"},
		{"rocket", "price increase"},
		{"brrrr", "money printing"},
		{"guh", "loss reaction"},
	}
	defaultNoiseWords = []string{
		"lol", "lmao", "omg", "wtf", "tbh", "imo", "imho", "afaik",
		"tldr", "tl;dr", "fyi", "btw", "idk", "ngl", "smh",
	}
)

type replacement struct {
	pattern *regexp.Regexp
	with    string
}

// Cleaner normalizes noisy social media text while keeping the financial
// signal intact. It holds only immutable tables and is safe for concurrent use.
type Cleaner struct {
	slang []replacement
	noise []*regexp.Regexp
}

// NewCleaner creates a cleaner with the built-in slang and noise tables.
func NewCleaner() *Cleaner {
	c := &Cleaner{}
	for _, e := range defaultSlangEntries {
		c.slang = append(c.slang, replacement{
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(e[0]) + `\b`),
			with:    e[1],
		})
	}
	for _, w := range defaultNoiseWords {
		c.noise = append(c.noise, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return c
}

// CleanBasic decodes HTML entities, strips URLs and collapses whitespace.
func (c *Cleaner) CleanBasic(text string) string {
	if text == "" {
		return ""
	}
	text = html.UnescapeString(text)
	text = urlPattern.ReplaceAllString(text, "")
	return collapse(text)
}

// CleanSocialMedia strips mentions, contact details and punctuation noise.
// With preserveTickers, a hashtag naming a cashtag seen in the same text is
// rewritten to $TICKER form instead of a bare word.
func (c *Cleaner) CleanSocialMedia(text string, preserveTickers bool) string {
	if text == "" {
		return ""
	}
	text = c.CleanBasic(text)

	tickers := make(map[string]bool)
	if preserveTickers {
		for _, t := range cashtagPattern.FindAllString(strings.ToUpper(text), -1) {
			tickers[t[1:]] = true
		}
	}

	// Emails go before mentions, otherwise the domain half survives.
	text = emailPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		word := tag[1:]
		if tickers[strings.ToUpper(word)] {
			return "$" + strings.ToUpper(word)
		}
		return word
	})
	text = phonePattern.ReplaceAllString(text, "")
	text = punctuationRun.ReplaceAllString(text, "...")
	return collapse(text)
}

// CleanRedditPost removes quoted lines and edit notes on top of the social
// media clean.
func (c *Cleaner) CleanRedditPost(text string) string {
	if text == "" {
		return ""
	}
	// Both patterns are line-anchored, so they run before whitespace is
	// collapsed.
	text = redditQuotePattern.ReplaceAllString(text, "")
	text = redditEditPattern.ReplaceAllString(text, "")
	return c.CleanSocialMedia(text, true)
}

// NormalizeSlang lower-cases the text and rewrites trading slang to plain
// terms using whole-word matches.
func (c *Cleaner) NormalizeSlang(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	for _, r := range c.slang {
		text = r.pattern.ReplaceAllString(text, r.with)
	}
	return text
}

// RemoveNoiseWords drops filler abbreviations such as "lol" and "imo".
func (c *Cleaner) RemoveNoiseWords(text string) string {
	for _, p := range c.noise {
		text = p.ReplaceAllString(text, "")
	}
	return collapse(text)
}

// CleanForSentiment is the entry point used before keyword scoring.
func (c *Cleaner) CleanForSentiment(text string, normalizeSlang bool) string {
	if text == "" {
		return ""
	}
	text = c.CleanSocialMedia(text, true)
	if normalizeSlang {
		text = c.NormalizeSlang(text)
	}
	return c.RemoveNoiseWords(text)
}

// ExtractSentences splits text on sentence punctuation and keeps the
// sentences long enough to carry meaning.
func (c *Cleaner) ExtractSentences(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, s := range sentenceBoundary.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) > minSentenceLength {
			out = append(out, s)
		}
	}
	return out
}

func collapse(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
