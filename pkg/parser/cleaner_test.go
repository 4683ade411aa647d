package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanBasic(t *testing.T) {
	c := NewCleaner()

	assert.Equal(t, "", c.CleanBasic(""))
	assert.Equal(t, "Check & see now", c.CleanBasic("Check &amp; see https://x.com/a?b=1   now"))
	assert.Equal(t, "multi line", c.CleanBasic("  multi\n\tline  "))
}

func TestCleanSocialMedia(t *testing.T) {
	c := NewCleaner()

	t.Run("hashtag matching a cashtag becomes a cashtag", func(t *testing.T) {
		got := c.CleanSocialMedia("$GME to the moon #gme @user!!!", true)
		assert.Equal(t, "$GME to the moon $GME ...", got)
	})

	t.Run("hashtags are bare words without ticker preservation", func(t *testing.T) {
		got := c.CleanSocialMedia("$GME to the moon #gme @user!!!", false)
		assert.Equal(t, "$GME to the moon gme ...", got)
	})

	t.Run("contact details are removed", func(t *testing.T) {
		assert.Equal(t, "mail me at now", c.CleanSocialMedia("mail me at bob@example.com now", true))
		assert.Equal(t, "call today", c.CleanSocialMedia("call +15551234567 today", true))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", c.CleanSocialMedia("", true))
	})
}

func TestCleanRedditPost(t *testing.T) {
	c := NewCleaner()

	got := c.CleanRedditPost("> quoted text\nActual content here\nEdit: typo fixed")
	assert.Equal(t, "Actual content here", got)

	got = c.CleanRedditPost("&gt; quoted\nMy take on $AMC")
	assert.Equal(t, "My take on $AMC", got)
}

func TestNormalizeSlang(t *testing.T) {
	c := NewCleaner()

	assert.Equal(t, "hold my stocks, holding strong", c.NormalizeSlang("HODL my Stonks, diamond hands"))
	assert.Equal(t, "grapes and moonshots", c.NormalizeSlang("grapes and moonshots"), "only whole words are rewritten")
	assert.Equal(t, "price increase", c.NormalizeSlang("moon"))
	assert.Equal(t, "", c.NormalizeSlang(""))
}

func TestRemoveNoiseWords(t *testing.T) {
	c := NewCleaner()

	assert.Equal(t, "this is great", c.RemoveNoiseWords("LOL this is great imo"))
	assert.Equal(t, "lollipop", c.RemoveNoiseWords("lollipop"))
}

func TestCleanForSentiment(t *testing.T) {
	c := NewCleaner()

	assert.Equal(t, "holding strong 🚀 $gme", c.CleanForSentiment("Diamond hands lol 🚀 $GME", true))
	assert.Equal(t, "Diamond hands 🚀 $GME", c.CleanForSentiment("Diamond hands lol 🚀 $GME", false))
	assert.Equal(t, "", c.CleanForSentiment("", true))
}

func TestExtractSentences(t *testing.T) {
	c := NewCleaner()

	got := c.ExtractSentences("Short. This one is long enough! Also this sentence counts?")
	assert.Equal(t, []string{"This one is long enough", "Also this sentence counts"}, got)
	assert.Nil(t, c.ExtractSentences(""))
}
