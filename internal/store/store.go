package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/hypefinder/pkg/scorer"
	"github.com/elonfeng/hypefinder/pkg/source"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Scan is one persisted scoring run.
type Scan struct {
	ID              string    `db:"id" json:"id"`
	StartedAt       time.Time `db:"started_at" json:"started_at"`
	FinishedAt      time.Time `db:"finished_at" json:"finished_at"`
	PostCount       int       `db:"post_count" json:"post_count"`
	TickerCount     int       `db:"ticker_count" json:"ticker_count"`
	VolumeWeight    float64   `db:"volume_weight" json:"volume_weight"`
	SentimentWeight float64   `db:"sentiment_weight" json:"sentiment_weight"`
}

// HistoryPoint is a ticker's standing in one past scan.
type HistoryPoint struct {
	ScanID         string    `db:"scan_id" json:"scan_id"`
	ScannedAt      time.Time `db:"finished_at" json:"scanned_at"`
	Rank           int       `db:"rank" json:"rank"`
	HypeScore      float64   `db:"hype_score" json:"hype_score"`
	VolumeScore    float64   `db:"volume_score" json:"volume_score"`
	SentimentScore float64   `db:"sentiment_score" json:"sentiment_score"`
	MentionCount   int       `db:"mention_count" json:"mention_count"`
	SentimentTrend string    `db:"sentiment_trend" json:"sentiment_trend"`
	Alerted        bool      `db:"alerted" json:"alerted"`
}

// ListOpts controls post listing.
type ListOpts struct {
	Source source.SourceType
	Since  time.Time
	Limit  int
}

// Store is the persistence interface.
type Store interface {
	UpsertPosts(ctx context.Context, posts []source.Post) error
	ListPosts(ctx context.Context, opts ListOpts) ([]source.Post, error)
	CountPostsBySource(ctx context.Context) (map[source.SourceType]int, error)

	SaveScan(ctx context.Context, scan *Scan, results []scorer.HypeResult) error
	LatestScan(ctx context.Context) (*Scan, error)
	ListResults(ctx context.Context, scanID string) ([]scorer.HypeResult, error)
	AlertedTickers(ctx context.Context, scanID string) (map[string]bool, error)
	TickerHistory(ctx context.Context, ticker string, limit int) ([]HistoryPoint, error)
	MarkAlerted(ctx context.Context, scanID, ticker string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertPosts stores posts, refreshing text and engagement of ones already
// seen.
func (s *SQLiteStore) UpsertPosts(ctx context.Context, posts []source.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert posts: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, p := range posts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO posts (id, source, text, timestamp, engagement_score, author, url, collected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				text = excluded.text,
				engagement_score = excluded.engagement_score,
				collected_at = excluded.collected_at
		`, p.ID, p.Source, p.Text, p.Timestamp, p.EngagementScore, p.Author, p.URL, now)
		if err != nil {
			return fmt.Errorf("upsert post %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert posts: %w", err)
	}
	return nil
}

// ListPosts returns posts collected since opts.Since, newest first.
func (s *SQLiteStore) ListPosts(ctx context.Context, opts ListOpts) ([]source.Post, error) {
	query := "SELECT id, source, text, timestamp, engagement_score, author, url FROM posts WHERE 1=1"
	var args []any

	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	if !opts.Since.IsZero() {
		query += " AND collected_at >= ?"
		args = append(args, opts.Since.UTC())
	}

	query += " ORDER BY collected_at DESC, id"

	limit := opts.Limit
	if limit <= 0 {
		limit = 5000
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var posts []source.Post
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *SQLiteStore) CountPostsBySource(ctx context.Context) (map[source.SourceType]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT source, COUNT(*) as cnt FROM posts GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("count posts by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[source.SourceType]int)
	for rows.Next() {
		var src string
		var cnt int
		if err := rows.Scan(&src, &cnt); err != nil {
			return nil, err
		}
		counts[source.SourceType(src)] = cnt
	}
	return counts, rows.Err()
}

// SaveScan writes a scan and its ranked results atomically. The full result
// is kept as JSON next to the columns history queries need.
func (s *SQLiteStore) SaveScan(ctx context.Context, scan *Scan, results []scorer.HypeResult) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save scan: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scans (id, started_at, finished_at, post_count, ticker_count, volume_weight, sentiment_weight)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, scan.ID, scan.StartedAt.UTC(), scan.FinishedAt.UTC(), scan.PostCount, scan.TickerCount,
		scan.VolumeWeight, scan.SentimentWeight)
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", scan.ID, err)
	}

	for _, r := range results {
		detail, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode result %s: %w", r.Ticker, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO hype_results (scan_id, ticker, rank, hype_score, volume_score, sentiment_score, mention_count, sentiment_trend, detail)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, scan.ID, r.Ticker, r.Rank, r.HypeScore, r.VolumeScore, r.SentimentScore,
			r.MentionCount, string(r.SentimentTrend), string(detail))
		if err != nil {
			return fmt.Errorf("insert result %s: %w", r.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scan %s: %w", scan.ID, err)
	}
	return nil
}

// LatestScan returns the most recently finished scan, or ErrNotFound.
func (s *SQLiteStore) LatestScan(ctx context.Context) (*Scan, error) {
	var scan Scan
	err := s.db.GetContext(ctx, &scan, "SELECT * FROM scans ORDER BY finished_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest scan: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest scan: %w", err)
	}
	return &scan, nil
}

// ListResults returns a scan's results in rank order.
func (s *SQLiteStore) ListResults(ctx context.Context, scanID string) ([]scorer.HypeResult, error) {
	var details []string
	err := s.db.SelectContext(ctx, &details,
		"SELECT detail FROM hype_results WHERE scan_id = ? ORDER BY rank", scanID)
	if err != nil {
		return nil, fmt.Errorf("list results %s: %w", scanID, err)
	}

	results := make([]scorer.HypeResult, 0, len(details))
	for _, d := range details {
		var r scorer.HypeResult
		if err := json.Unmarshal([]byte(d), &r); err != nil {
			return nil, fmt.Errorf("decode result in scan %s: %w", scanID, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// AlertedTickers returns the tickers flagged as alerted in a scan.
func (s *SQLiteStore) AlertedTickers(ctx context.Context, scanID string) (map[string]bool, error) {
	var tickers []string
	err := s.db.SelectContext(ctx, &tickers,
		"SELECT ticker FROM hype_results WHERE scan_id = ? AND alerted = 1", scanID)
	if err != nil {
		return nil, fmt.Errorf("alerted tickers %s: %w", scanID, err)
	}

	out := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		out[t] = true
	}
	return out, nil
}

// TickerHistory returns a ticker's results across scans, newest first.
func (s *SQLiteStore) TickerHistory(ctx context.Context, ticker string, limit int) ([]HistoryPoint, error) {
	if limit <= 0 {
		limit = 20
	}

	var points []HistoryPoint
	err := s.db.SelectContext(ctx, &points, `
		SELECT r.scan_id, s.finished_at, r.rank, r.hype_score, r.volume_score,
		       r.sentiment_score, r.mention_count, r.sentiment_trend, r.alerted
		FROM hype_results r
		JOIN scans s ON s.id = r.scan_id
		WHERE r.ticker = ?
		ORDER BY s.finished_at DESC
		LIMIT ?
	`, strings.ToUpper(ticker), limit)
	if err != nil {
		return nil, fmt.Errorf("ticker history %s: %w", ticker, err)
	}
	return points, nil
}

func (s *SQLiteStore) MarkAlerted(ctx context.Context, scanID, ticker string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE hype_results SET alerted = 1 WHERE scan_id = ? AND ticker = ?", scanID, ticker)
	if err != nil {
		return fmt.Errorf("mark alerted %s/%s: %w", scanID, ticker, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark alerted %s/%s: %w", scanID, ticker, ErrNotFound)
	}
	return nil
}
