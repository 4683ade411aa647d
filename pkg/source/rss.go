package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
)

// RSSFeed is a named RSS/Atom feed URL.
type RSSFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DefaultFinanceFeeds are read when no feed is configured.
var DefaultFinanceFeeds = []RSSFeed{
	{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
	{Name: "MarketWatch", URL: "https://feeds.marketwatch.com/marketwatch/topstories/"},
	{Name: "CoinDesk", URL: "https://www.coindesk.com/arc/outboundfeeds/rss/"},
}

// RSS collects market news from RSS/Atom feeds.
type RSS struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []RSSFeed
	filter *Filter
	clean  func(string) string
}

// NewRSS creates a new RSS collector. A nil filter keeps every entry.
func NewRSS(feeds []RSSFeed, filter *Filter, clean func(string) string) *RSS {
	if clean == nil {
		clean = cleanText
	}
	return &RSS{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
		filter: filter,
		clean:  clean,
	}
}

func (r *RSS) Name() SourceType { return SourceRSS }

func (r *RSS) Collect(ctx context.Context) ([]Post, error) {
	var allPosts []Post

	for _, feed := range r.feeds {
		posts, err := r.collectFeed(ctx, feed)
		if err != nil {
			log.Warn().Err(err).Str("feed", feed.Name).Msg("rss collect failed")
			continue
		}
		allPosts = append(allPosts, posts...)
	}

	return allPosts, ctx.Err()
}

func (r *RSS) collectFeed(ctx context.Context, feed RSSFeed) ([]Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "hypefinder/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feed.Name, err)
	}

	var posts []Post
	now := time.Now().UTC()
	cutoff := now.Add(-24 * time.Hour) // Only last 24h

	for _, entry := range parsed.Items {
		published := now
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}

		// Skip old items.
		if published.Before(cutoff) {
			continue
		}

		text := strings.TrimSpace(entry.Title + ". " + stripHTML(entry.Description))
		if r.filter != nil && !r.filter.MatchesFinance(text) {
			continue
		}
		text = r.clean(text)
		if text == "" {
			continue
		}

		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}

		author := feed.Name
		if entry.Author != nil && entry.Author.Name != "" {
			author = entry.Author.Name
		}

		id := entry.GUID
		if id == "" {
			id = link
		}

		posts = append(posts, Post{
			ID:        fmt.Sprintf("rss:%s:%s", feed.Name, id),
			Text:      text,
			Source:    SourceRSS,
			Timestamp: FormatTimestamp(published),
			Author:    author,
			URL:       link,
		})
	}

	return posts, nil
}
