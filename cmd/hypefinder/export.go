package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/elonfeng/hypefinder/pkg/scorer"
)

var csvHeader = []string{
	"rank", "ticker", "hype_score", "volume_score", "sentiment_score",
	"sentiment_confidence", "mention_count", "platforms", "platform_count",
	"sentiment_trend", "timestamp",
}

func writeResultsCSV(path string, results []scorer.HypeResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	if err := encodeResultsCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// encodeResultsCSV writes one row per result. Scores are rounded to four
// decimal places.
func encodeResultsCSV(w io.Writer, results []scorer.HypeResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Rank),
			r.Ticker,
			round4(r.HypeScore),
			round4(r.VolumeScore),
			round4(r.SentimentScore),
			round4(r.SentimentConfidence),
			strconv.Itoa(r.MentionCount),
			strings.Join(r.Platforms, ","),
			strconv.Itoa(r.PlatformCount),
			string(r.SentimentTrend),
			r.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func round4(f float64) string {
	return strconv.FormatFloat(math.Round(f*1e4)/1e4, 'f', -1, 64)
}
