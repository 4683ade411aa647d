package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadTickerList reads ticker symbols from the first column of a CSV file.
// Rows whose first cell is not a plausible symbol, such as a "Symbol"
// header, are skipped.
func LoadTickerList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ticker list: %w", err)
	}
	defer f.Close()

	return readTickerList(f)
}

func readTickerList(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	seen := make(map[string]struct{})
	var tickers []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ticker list: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		t := CleanTicker(rec[0])
		if t == "" || len(t) > 5 || !isUpperAlpha(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}
	return tickers, nil
}

func isUpperAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
