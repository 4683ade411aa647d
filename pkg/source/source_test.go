package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	for _, s := range []string{
		"2024-03-01T12:30:00Z",
		"2024-03-01T12:30:00+00:00",
		"2024-03-01T14:30:00+02:00",
		"2024-03-01T12:30:00.000Z",
		"2024-03-01T12:30:00",
		"2024-03-01 12:30:00",
		"2024-03-01T12:30",
	} {
		got, ok := ParseTimestamp(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), s)
		assert.Equal(t, time.UTC, got.Location(), s)
	}

	for _, s := range []string{"", "   ", "yesterday", "2024-13-45T00:00:00Z"} {
		_, ok := ParseTimestamp(s)
		assert.False(t, ok, s)
	}
}

func TestPostTime(t *testing.T) {
	p := Post{Timestamp: FormatTimestamp(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))}
	ts, ok := p.Time()
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())

	_, ok = Post{}.Time()
	assert.False(t, ok)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "look at $GME now", cleanText("look  at https://x.com/a $GME\n www.example.com now"))
	assert.Equal(t, "AT&T up 5%", stripHTMLAndClean("<p>AT&amp;T <b>up</b> 5%</p>"))
}

func stripHTMLAndClean(s string) string {
	return cleanText(stripHTML(s))
}

func TestFilterMatchesFinance(t *testing.T) {
	f := NewFilter([]string{"short interest"}, []string{"giveaway"})

	assert.True(t, f.MatchesFinance("Is $PLTR worth it?"))
	assert.True(t, f.MatchesFinance("Time to BUY the dip"))
	assert.True(t, f.MatchesFinance("Bitcoin halving soon"))
	assert.True(t, f.MatchesFinance("huge Short Interest here"))
	assert.False(t, f.MatchesFinance("my cat photos"))
	assert.False(t, f.MatchesFinance("free crypto giveaway"))
}

type fakeSource struct {
	name  SourceType
	posts []Post
	err   error
}

func (f fakeSource) Name() SourceType { return f.name }

func (f fakeSource) Collect(context.Context) ([]Post, error) { return f.posts, f.err }

func TestCollectAll(t *testing.T) {
	boom := errors.New("boom")
	results := CollectAll(context.Background(), []Source{
		fakeSource{name: SourceReddit, posts: []Post{{ID: "r1"}, {ID: "r2"}}},
		fakeSource{name: SourceTwitter, err: boom},
		fakeSource{name: SourceRSS, posts: []Post{{ID: "f1"}}},
	})

	require.Len(t, results, 3)
	assert.Equal(t, SourceReddit, results[0].Source)
	assert.Len(t, results[0].Posts, 2)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, SourceRSS, results[2].Source)

	posts := Flatten(results)
	require.Len(t, posts, 3)
	assert.Equal(t, "f1", posts[2].ID)
}
