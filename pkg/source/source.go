package source

import (
	"context"
	"html"
	"regexp"
	"strings"
	"time"
)

// SourceType identifies which platform a post came from. The set is open:
// collectors may introduce new values without touching the scorer.
type SourceType string

const (
	SourceTwitter       SourceType = "twitter"
	SourceReddit        SourceType = "reddit"
	SourceRedditComment SourceType = "reddit_comment"
	SourceRSS           SourceType = "rss"
)

// Post is the standardized record every collector produces and the scoring
// engine consumes. It is passed by value; the engine never mutates the
// caller's copy.
type Post struct {
	ID              string     `json:"id" db:"id"`
	Text            string     `json:"text" db:"text"`
	Source          SourceType `json:"source" db:"source"`
	Timestamp       string     `json:"timestamp" db:"timestamp"`
	EngagementScore float64    `json:"engagement_score" db:"engagement_score"`
	Author          string     `json:"author" db:"author"`
	URL             string     `json:"url" db:"url"`

	// MentionedTicker is set only on the tagged copies produced while
	// grouping posts by ticker.
	MentionedTicker string `json:"mentioned_ticker,omitempty" db:"-"`
}

// Time parses the post timestamp. ok is false when it is empty or malformed.
func (p Post) Time() (time.Time, bool) {
	return ParseTimestamp(p.Timestamp)
}

// Source is the interface every collector must implement.
type Source interface {
	Name() SourceType
	Collect(ctx context.Context) ([]Post, error)
}

// AllSourceTypes returns the source types shipped with hypefinder.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceTwitter,
		SourceReddit,
		SourceRedditComment,
		SourceRSS,
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are
// read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t the way collectors store post timestamps.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

var (
	linkPattern  = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// cleanText drops URLs and collapses whitespace. Collectors use it when no
// richer cleaner is configured.
func cleanText(s string) string {
	s = linkPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// stripHTML removes markup and decodes entities from feed descriptions.
func stripHTML(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, " "))
}
