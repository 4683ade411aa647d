package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elonfeng/hypefinder/pkg/scorer"
)

const maxSamples = 3

// Notification is the data sent to alert destinations.
type Notification struct {
	Ticker    string              `json:"ticker"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	URL       string              `json:"url"`
	Score     float64             `json:"score"`
	Rank      int                 `json:"rank"`
	Sentiment float64             `json:"sentiment"`
	Trend     scorer.Trend        `json:"trend"`
	Mentions  int                 `json:"mentions"`
	Platforms []string            `json:"platforms"`
	Samples   []scorer.SamplePost `json:"samples"`
}

// NewNotification builds a notification for a ranked hype result.
func NewNotification(r scorer.HypeResult) *Notification {
	n := &Notification{
		Ticker:    r.Ticker,
		Title:     "$" + r.Ticker,
		Score:     r.HypeScore,
		Rank:      r.Rank,
		Sentiment: r.SentimentScore,
		Trend:     r.SentimentTrend,
		Mentions:  r.MentionCount,
		Platforms: r.Platforms,
		Samples:   r.SamplePosts,
	}
	if len(n.Samples) > maxSamples {
		n.Samples = n.Samples[:maxSamples]
	}
	for _, s := range n.Samples {
		if s.URL != "" {
			n.URL = s.URL
			break
		}
	}

	n.Body = fmt.Sprintf("Rank #%d with %d mentions on %s. Sentiment %+.2f (%s).",
		r.Rank, r.MentionCount, strings.Join(r.Platforms, ", "), r.SentimentScore, r.SentimentTrend)
	return n
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// postJSON posts payload to url. headers may be nil.
func postJSON(ctx context.Context, client *http.Client, url string, body []byte, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hypefinder/1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func marshal(kind string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return body, nil
}

func sampleLine(s scorer.SamplePost) string {
	text := s.Text
	if r := []rune(text); len(r) > 100 {
		text = string(r[:100]) + "..."
	}
	return text
}
