package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/hypefinder/pkg/scorer"
	"github.com/elonfeng/hypefinder/pkg/source"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndListPosts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	posts := []source.Post{
		{ID: "r1", Text: "$GME moon", Source: source.SourceReddit, Timestamp: "2024-03-01T12:00:00Z", EngagementScore: 10, Author: "a"},
		{ID: "t1", Text: "$AMC dip", Source: source.SourceTwitter, Timestamp: "2024-03-01T11:00:00Z"},
		{ID: "r2", Text: "$TSLA calls", Source: source.SourceReddit},
	}
	require.NoError(t, s.UpsertPosts(ctx, posts))

	// Re-collecting refreshes engagement instead of duplicating.
	posts[0].EngagementScore = 42
	require.NoError(t, s.UpsertPosts(ctx, posts[:1]))
	require.NoError(t, s.UpsertPosts(ctx, nil))

	all, err := s.ListPosts(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	reddit, err := s.ListPosts(ctx, ListOpts{Source: source.SourceReddit})
	require.NoError(t, err)
	require.Len(t, reddit, 2)

	byID := make(map[string]source.Post)
	for _, p := range reddit {
		byID[p.ID] = p
	}
	assert.Equal(t, 42.0, byID["r1"].EngagementScore)
	assert.Equal(t, "2024-03-01T12:00:00Z", byID["r1"].Timestamp)
	assert.Equal(t, "a", byID["r1"].Author)
	assert.Empty(t, byID["r2"].Timestamp)

	future, err := s.ListPosts(ctx, ListOpts{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, future)

	limited, err := s.ListPosts(ctx, ListOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	counts, err := s.CountPostsBySource(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[source.SourceType]int{source.SourceReddit: 2, source.SourceTwitter: 1}, counts)
}

func testScan(id string, finished time.Time) *Scan {
	return &Scan{
		ID:              id,
		StartedAt:       finished.Add(-time.Second),
		FinishedAt:      finished,
		PostCount:       20,
		TickerCount:     2,
		VolumeWeight:    0.7,
		SentimentWeight: 0.3,
	}
}

func testResults(gmeScore float64) []scorer.HypeResult {
	return []scorer.HypeResult{
		{
			Ticker:         "GME",
			HypeScore:      gmeScore,
			VolumeScore:    1.2,
			SentimentScore: 0.6,
			MentionCount:   12,
			Rank:           1,
			SentimentTrend: scorer.TrendImproving,
			Platforms:      []string{"reddit", "twitter"},
			Modifiers:      []scorer.AppliedModifier{{Name: scorer.ModifierVelocity, Factor: 1.3}},
		},
		{Ticker: "AMC", HypeScore: 0.1, MentionCount: 8, Rank: 2, SentimentTrend: scorer.TrendStable},
	}
}

func TestSaveScanAndResults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.LatestScan(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveScan(ctx, testScan("scan-1", t0), testResults(1.1)))
	require.NoError(t, s.SaveScan(ctx, testScan("scan-2", t0.Add(30*time.Minute)), testResults(1.5)))

	latest, err := s.LatestScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scan-2", latest.ID)
	assert.Equal(t, 20, latest.PostCount)
	assert.True(t, t0.Add(30*time.Minute).Equal(latest.FinishedAt))

	results, err := s.ListResults(ctx, "scan-2")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "GME", results[0].Ticker)
	assert.Equal(t, 1.5, results[0].HypeScore)
	assert.Equal(t, scorer.TrendImproving, results[0].SentimentTrend)
	assert.Equal(t, []string{"reddit", "twitter"}, results[0].Platforms)
	require.Len(t, results[0].Modifiers, 1)
	assert.Equal(t, scorer.ModifierVelocity, results[0].Modifiers[0].Name)
	assert.Equal(t, "AMC", results[1].Ticker)

	// Duplicate scan IDs are rejected without partial writes.
	err = s.SaveScan(ctx, testScan("scan-2", t0.Add(time.Hour)), testResults(9))
	assert.Error(t, err)
	results, err = s.ListResults(ctx, "scan-2")
	require.NoError(t, err)
	assert.Equal(t, 1.5, results[0].HypeScore)
}

func TestTickerHistoryAndAlerts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveScan(ctx, testScan("scan-1", t0), testResults(1.1)))
	require.NoError(t, s.SaveScan(ctx, testScan("scan-2", t0.Add(time.Hour)), testResults(1.5)))

	require.NoError(t, s.MarkAlerted(ctx, "scan-2", "GME"))
	assert.ErrorIs(t, s.MarkAlerted(ctx, "scan-2", "TSLA"), ErrNotFound)

	alerted, err := s.AlertedTickers(ctx, "scan-2")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"GME": true}, alerted)

	alerted, err = s.AlertedTickers(ctx, "scan-1")
	require.NoError(t, err)
	assert.Empty(t, alerted)

	history, err := s.TickerHistory(ctx, "gme", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "scan-2", history[0].ScanID)
	assert.Equal(t, 1.5, history[0].HypeScore)
	assert.True(t, history[0].Alerted)
	assert.Equal(t, "improving", history[0].SentimentTrend)
	assert.Equal(t, "scan-1", history[1].ScanID)
	assert.False(t, history[1].Alerted)

	history, err = s.TickerHistory(ctx, "GME", 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	history, err = s.TickerHistory(ctx, "NOPE", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}
