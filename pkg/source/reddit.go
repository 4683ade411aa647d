package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	defaultRedditAuthURL = "https://www.reddit.com/api/v1/access_token"
	defaultRedditAPIURL  = "https://oauth.reddit.com"
	minCommentLength     = 20
)

// DefaultSubreddits are watched when none are configured.
var DefaultSubreddits = []string{"wallstreetbets", "cryptocurrency", "memeeconomy", "stockmarket"}

// RedditConfig configures the Reddit collector.
type RedditConfig struct {
	ClientID          string
	ClientSecret      string
	UserAgent         string
	Subreddits        []string
	PostsPerSubreddit int // split evenly between the hot and new listings
	CommentsPerPost   int // 0 disables comment collection
	RequestsPerSecond float64
	Timeout           time.Duration

	// Clean normalizes post and comment text. Whitespace is collapsed and
	// URLs dropped when nil.
	Clean func(string) string

	// Endpoint overrides, used by tests.
	AuthURL string
	APIURL  string
}

// Reddit collects market posts and their top comments from subreddits.
type Reddit struct {
	cfg     RedditConfig
	client  *http.Client
	limiter *rate.Limiter
	filter  *Filter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewReddit creates a new Reddit collector. Posts are kept only when filter
// matches them; a nil filter keeps everything.
func NewReddit(cfg RedditConfig, filter *Filter) *Reddit {
	if len(cfg.Subreddits) == 0 {
		cfg.Subreddits = DefaultSubreddits
	}
	if cfg.PostsPerSubreddit <= 0 {
		cfg.PostsPerSubreddit = 100
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "hypefinder/1.0"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Clean == nil {
		cfg.Clean = cleanText
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultRedditAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultRedditAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	return &Reddit{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		filter:  filter,
	}
}

func (r *Reddit) Name() SourceType { return SourceReddit }

func (r *Reddit) Collect(ctx context.Context) ([]Post, error) {
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit auth: %w", err)
	}

	var allPosts []Post
	for _, sub := range r.cfg.Subreddits {
		posts, err := r.collectSubreddit(ctx, sub)
		if err != nil {
			if ctx.Err() != nil {
				return allPosts, ctx.Err()
			}
			log.Warn().Err(err).Str("subreddit", sub).Msg("reddit collect failed")
			continue
		}
		allPosts = append(allPosts, posts...)
	}

	return allPosts, nil
}

func (r *Reddit) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return nil
	}
	if r.cfg.ClientID == "" || r.cfg.ClientSecret == "" {
		return fmt.Errorf("missing reddit client credentials")
	}

	data := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.AuthURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}

	req.SetBasicAuth(r.cfg.ClientID, r.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("reddit token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit auth status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("decode reddit token: %w", err)
	}

	r.token = tokenResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)
	return nil
}

// collectSubreddit reads the hot and new listings, keeping each relevant
// post once, followed by its top comments.
func (r *Reddit) collectSubreddit(ctx context.Context, subreddit string) ([]Post, error) {
	limit := max(1, r.cfg.PostsPerSubreddit/2)
	seen := make(map[string]bool)

	var posts []Post
	for _, listing := range []string{"hot", "new"} {
		entries, err := r.fetchListing(ctx, subreddit, listing, limit)
		if err != nil {
			return nil, err
		}

		for _, p := range entries {
			if seen[p.ID] || p.Stickied || p.Distinguished != "" {
				continue
			}
			seen[p.ID] = true

			if r.filter != nil && !r.filter.MatchesFinance(p.Title+" "+p.Selftext) {
				continue
			}

			post, ok := r.toPost(p)
			if !ok {
				continue
			}

			if r.cfg.CommentsPerPost > 0 {
				comments, err := r.fetchComments(ctx, subreddit, p, post.URL)
				if err != nil {
					log.Debug().Err(err).Str("post", p.ID).Msg("reddit comments failed")
				}
				posts = append(posts, comments...)
			}
			posts = append(posts, post)
		}
	}

	return posts, nil
}

func (r *Reddit) toPost(p redditPost) (Post, bool) {
	text := r.cfg.Clean(strings.TrimSpace(p.Title + ". " + p.Selftext))
	if text == "" {
		return Post{}, false
	}

	ratio := p.UpvoteRatio
	if ratio == 0 {
		ratio = 0.5
	}

	return Post{
		ID:              p.ID,
		Text:            text,
		Source:          SourceReddit,
		Timestamp:       unixTimestamp(p.CreatedUTC),
		EngagementScore: float64(p.Score)*ratio + float64(p.NumComments)*2,
		Author:          p.Author,
		URL:             "https://reddit.com" + p.Permalink,
	}, true
}

func (r *Reddit) fetchListing(ctx context.Context, subreddit, listing string, limit int) ([]redditPost, error) {
	reqURL := fmt.Sprintf("%s/r/%s/%s.json?limit=%d", r.cfg.APIURL, subreddit, listing, limit)

	var out redditListing
	if err := r.getJSON(ctx, reqURL, &out); err != nil {
		return nil, fmt.Errorf("fetch r/%s/%s: %w", subreddit, listing, err)
	}

	posts := make([]redditPost, 0, len(out.Data.Children))
	for _, child := range out.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

// fetchComments returns the highest scored top-level comments of a post as
// reddit_comment posts. Deleted, removed and very short comments are dropped.
func (r *Reddit) fetchComments(ctx context.Context, subreddit string, parent redditPost, parentURL string) ([]Post, error) {
	reqURL := fmt.Sprintf("%s/r/%s/comments/%s.json?sort=top&depth=1&limit=%d",
		r.cfg.APIURL, subreddit, parent.ID, r.cfg.CommentsPerPost)

	// The response is [post listing, comment listing].
	var listings []redditCommentListing
	if err := r.getJSON(ctx, reqURL, &listings); err != nil {
		return nil, fmt.Errorf("fetch comments %s: %w", parent.ID, err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []redditComment
	for _, child := range listings[1].Data.Children {
		if child.Kind == "t1" {
			comments = append(comments, child.Data)
		}
	}
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].Score > comments[j].Score })
	if len(comments) > r.cfg.CommentsPerPost {
		comments = comments[:r.cfg.CommentsPerPost]
	}

	var posts []Post
	for _, c := range comments {
		if c.Author == "" || c.Author == "[deleted]" || c.Body == "[deleted]" || c.Body == "[removed]" {
			continue
		}
		text := r.cfg.Clean(c.Body)
		if len(text) <= minCommentLength {
			continue
		}
		posts = append(posts, Post{
			ID:              fmt.Sprintf("%s_comment_%s", parent.ID, c.ID),
			Text:            text,
			Source:          SourceRedditComment,
			Timestamp:       unixTimestamp(c.CreatedUTC),
			EngagementScore: float64(c.Score),
			Author:          c.Author,
			URL:             parentURL,
		})
	}
	return posts, nil
}

func (r *Reddit) getJSON(ctx context.Context, reqURL string, v any) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	r.mu.Lock()
	token := r.token
	r.mu.Unlock()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func unixTimestamp(sec float64) string {
	if sec <= 0 {
		return ""
	}
	return FormatTimestamp(time.Unix(int64(sec), 0))
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Permalink     string  `json:"permalink"`
	Selftext      string  `json:"selftext"`
	Author        string  `json:"author"`
	Score         int     `json:"score"`
	NumComments   int     `json:"num_comments"`
	CreatedUTC    float64 `json:"created_utc"`
	Stickied      bool    `json:"stickied"`
	Distinguished string  `json:"distinguished"`
	UpvoteRatio   float64 `json:"upvote_ratio"`
}

type redditCommentListing struct {
	Data struct {
		Children []struct {
			Kind string        `json:"kind"`
			Data redditComment `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditComment struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}
