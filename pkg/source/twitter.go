package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultTwitterQueries are searched when no query is configured.
var DefaultTwitterQueries = []string{"stock market", "crypto", "bullish", "bearish"}

// Twitter collects market tweets via Nitter RSS feeds, both from followed
// accounts and from keyword searches. Nitter exposes no engagement counts,
// so every tweet has engagement 0.
type Twitter struct {
	client    *http.Client
	parser    *gofeed.Parser
	limiter   *rate.Limiter
	nitterURL string
	accounts  []string
	queries   []string
	maxAge    time.Duration
	clean     func(string) string
}

// NewTwitter creates a new Twitter/X collector using Nitter RSS.
func NewTwitter(nitterURL string, accounts, queries []string, clean func(string) string) *Twitter {
	if nitterURL == "" {
		nitterURL = "https://nitter.net"
	}
	if len(accounts) == 0 && len(queries) == 0 {
		queries = DefaultTwitterQueries
	}
	if clean == nil {
		clean = cleanText
	}
	return &Twitter{
		client:    &http.Client{Timeout: 30 * time.Second},
		parser:    gofeed.NewParser(),
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		nitterURL: strings.TrimRight(nitterURL, "/"),
		accounts:  accounts,
		queries:   queries,
		maxAge:    24 * time.Hour,
		clean:     clean,
	}
}

func (t *Twitter) Name() SourceType { return SourceTwitter }

func (t *Twitter) Collect(ctx context.Context) ([]Post, error) {
	var allPosts []Post
	seen := make(map[string]bool)

	add := func(posts []Post) {
		for _, p := range posts {
			if !seen[p.ID] {
				seen[p.ID] = true
				allPosts = append(allPosts, p)
			}
		}
	}

	for _, account := range t.accounts {
		posts, err := t.collectFeed(ctx, fmt.Sprintf("%s/%s/rss", t.nitterURL, account), account)
		if err != nil {
			log.Warn().Err(err).Str("account", account).Msg("twitter collect failed")
			continue
		}
		add(posts)
	}

	for _, q := range t.queries {
		feedURL := fmt.Sprintf("%s/search/rss?f=tweets&q=%s", t.nitterURL, url.QueryEscape(q))
		posts, err := t.collectFeed(ctx, feedURL, "")
		if err != nil {
			log.Warn().Err(err).Str("query", q).Msg("twitter search failed")
			continue
		}
		add(posts)
	}

	return allPosts, ctx.Err()
}

func (t *Twitter) collectFeed(ctx context.Context, feedURL, account string) ([]Post, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create twitter request: %w", err)
	}
	req.Header.Set("User-Agent", "hypefinder/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch twitter feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter feed status %d", resp.StatusCode)
	}

	feed, err := t.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse twitter feed: %w", err)
	}

	var posts []Post
	now := time.Now().UTC()
	cutoff := now.Add(-t.maxAge)

	for _, entry := range feed.Items {
		published := now
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		}
		if published.Before(cutoff) {
			continue
		}

		text := entry.Title
		if text == "" {
			text = stripHTML(entry.Description)
		}
		text = t.clean(text)
		if text == "" {
			continue
		}

		author := account
		if author == "" && entry.Author != nil {
			author = strings.TrimPrefix(entry.Author.Name, "@")
		}

		// Convert nitter link back to twitter.
		link := strings.Replace(entry.Link, t.nitterURL, "https://x.com", 1)

		id := entry.GUID
		if id == "" {
			id = link
		}

		posts = append(posts, Post{
			ID:        "twitter:" + id,
			Text:      text,
			Source:    SourceTwitter,
			Timestamp: FormatTimestamp(published),
			Author:    author,
			URL:       link,
		})
	}

	return posts, nil
}
