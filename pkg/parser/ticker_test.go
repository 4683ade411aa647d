package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/hypefinder/pkg/source"
)

func TestExtractTickers(t *testing.T) {
	e := NewExtractor(nil)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"cashtag and buy phrase", "$AAPL to the moon, buy TSLA now", []string{"AAPL", "TSLA"}},
		{"lower case input", "loading up on $gme shares", []string{"GME"}},
		{"stock suffix", "NVDA stock is ripping", []string{"NVDA"}},
		{"crypto pair", "watching DOGEUSD closely", []string{"DOGE"}},
		{"crypto name", "SOL and SHIB pumping", []string{"SHIB", "SOL"}},
		{"common word rejected", "the stock market is up", nil},
		{"excluded crypto symbol", "BTC and ETH are flat", nil},
		{"empty", "", nil},
		{"duplicates collapse", "$AMC $AMC $AMC", []string{"AMC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractTickers(tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidTicker(t *testing.T) {
	e := NewExtractor(nil)

	assert.True(t, e.IsValidTicker("AAPL"))
	assert.True(t, e.IsValidTicker("GME"))
	assert.False(t, e.IsValidTicker("THE"))
	assert.False(t, e.IsValidTicker("A"))
	assert.False(t, e.IsValidTicker("ABCDEF"))
	assert.False(t, e.IsValidTicker("AB1"))
	assert.False(t, e.IsValidTicker("aapl"))
	assert.False(t, e.IsValidTicker(""))
}

func TestIsValidTickerKnownList(t *testing.T) {
	t.Run("small list is ignored", func(t *testing.T) {
		e := NewExtractor([]string{"AAPL", "MSFT"})
		// Permissive fallback: anything structurally valid passes.
		assert.True(t, e.IsValidTicker("ZZZZ"))
	})

	t.Run("large list is authoritative", func(t *testing.T) {
		known := []string{"AAPL"}
		for i := 0; len(known) <= knownListThreshold; i++ {
			known = append(known, fmt.Sprintf("Q%c%c", 'A'+i/26, 'A'+i%26))
		}
		e := NewExtractor(known)
		assert.True(t, e.IsValidTicker("AAPL"))
		assert.False(t, e.IsValidTicker("ZZZZ"))
		assert.False(t, e.IsValidTicker("THE"))
	})
}

func TestCleanTicker(t *testing.T) {
	assert.Equal(t, "SHOP", CleanTicker(" $shop.to "))
	assert.Equal(t, "BP", CleanTicker("BP.L"))
	assert.Equal(t, "AAPL", CleanTicker("$AAPL"))
	assert.Equal(t, "", CleanTicker("  "))
}

func TestGroupPostsByTicker(t *testing.T) {
	e := NewExtractor(nil)
	posts := []source.Post{
		{ID: "1", Text: "$TSLA and $AAPL"},
		{ID: "2", Text: "$TSLA again"},
		{ID: "3", Text: "nothing here"},
		{ID: "4", Text: "$GME"},
	}

	g := e.GroupPostsByTicker(posts)

	require.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"AAPL", "TSLA", "GME"}, g.Tickers())
	require.Len(t, g.Posts("TSLA"), 2)
	assert.Equal(t, "TSLA", g.Posts("TSLA")[0].MentionedTicker)
	assert.Equal(t, "2", g.Posts("TSLA")[1].ID)
	assert.Empty(t, g.Posts("MSFT"))

	for _, p := range posts {
		assert.Empty(t, p.MentionedTicker, "caller posts must not be mutated")
	}

	filtered := g.Filter(func(_ string, ps []source.Post) bool { return len(ps) >= 2 })
	assert.Equal(t, []string{"TSLA"}, filtered.Tickers())
	assert.Equal(t, 3, g.Len())
}

func TestContextWindows(t *testing.T) {
	posts := []source.Post{{Text: "aapl up. AAPL down"}}

	got := ContextWindows(posts, "AAPL", 3)
	assert.Equal(t, []string{"aapl up", "p. AAPL do"}, got)

	t.Run("overlapping occurrences", func(t *testing.T) {
		got := ContextWindows([]source.Post{{Text: "AAA"}}, "AA", 0)
		assert.Equal(t, []string{"AA", "AA"}, got)
	})

	t.Run("window snaps to rune boundaries", func(t *testing.T) {
		got := ContextWindows([]source.Post{{Text: "€€ $GME"}}, "GME", 4)
		require.Len(t, got, 1)
		assert.True(t, utf8.ValidString(got[0]))
		assert.Equal(t, "€ $GME", got[0])
	})

	t.Run("no occurrence", func(t *testing.T) {
		assert.Empty(t, ContextWindows(posts, "TSLA", 100))
	})
}

func TestMentionCountsAndThreshold(t *testing.T) {
	e := NewExtractor(nil)
	posts := []source.Post{
		{Text: "$GME $AMC"},
		{Text: "$GME"},
		{Text: "$GME rocket"},
	}

	counts := e.MentionCounts(posts)
	assert.Equal(t, map[string]int{"GME": 3, "AMC": 1}, counts)
	assert.Equal(t, map[string]int{"GME": 3}, FilterByMentionThreshold(counts, 2))
	assert.Empty(t, FilterByMentionThreshold(counts, 4))
}

func TestLoadTickerList(t *testing.T) {
	csv := "Symbol,Name\nAAPL,Apple\nmsft,Microsoft\nAAPL,dup\nBRK.B,Berkshire\nSHOP.TO,Shopify\n"

	got, err := readTickerList(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "SHOP"}, got)

	path := filepath.Join(t.TempDir(), "tickers.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	got, err = LoadTickerList(path)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = LoadTickerList(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
