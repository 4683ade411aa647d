package alert

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Slack sends notifications via Slack incoming webhook.
type Slack struct {
	client     *http.Client
	webhookURL string
}

// NewSlack creates a new Slack notifier.
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, n *Notification) error {
	// Build Slack Block Kit message.
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": fmt.Sprintf("🚀 %s is hyped", n.Title),
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Hype:* %.3f | *Rank:* #%d\n%s", n.Score, n.Rank, n.Body),
			},
		},
	}

	if len(n.Samples) > 0 {
		var elements []map[string]any
		for _, sp := range n.Samples {
			text := fmt.Sprintf("[%s] %s", sp.Source, sampleLine(sp))
			if sp.URL != "" {
				text = fmt.Sprintf("<%s|%s>", sp.URL, text)
			}
			elements = append(elements, map[string]any{"type": "mrkdwn", "text": text})
		}
		blocks = append(blocks, map[string]any{
			"type":     "context",
			"elements": elements,
		})
	}

	body, err := marshal("slack", map[string]any{"blocks": blocks})
	if err != nil {
		return err
	}
	if err := postJSON(ctx, s.client, s.webhookURL, body, nil); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}
