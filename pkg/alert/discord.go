package alert

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	var lines []string
	for _, sp := range n.Samples {
		line := fmt.Sprintf("• %s [%s]", sampleLine(sp), sp.Source)
		if sp.URL != "" {
			line = fmt.Sprintf("• [%s](%s) [%s]", sampleLine(sp), sp.URL, sp.Source)
		}
		lines = append(lines, line)
	}

	// Green when sentiment is positive, red otherwise.
	color := 0x2ECC71
	if n.Sentiment < 0 {
		color = 0xE74C3C
	}

	embed := map[string]any{
		"title":       fmt.Sprintf("🚀 %s", n.Title),
		"description": fmt.Sprintf("**Hype:** %.3f | **Rank:** #%d\n\n%s\n\n%s", n.Score, n.Rank, n.Body, strings.Join(lines, "\n")),
		"color":       color,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	if n.URL != "" {
		embed["url"] = n.URL
	}

	body, err := marshal("discord", map[string]any{"embeds": []map[string]any{embed}})
	if err != nil {
		return err
	}
	if err := postJSON(ctx, d.client, d.webhookURL, body, nil); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}
