package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elonfeng/hypefinder/internal/engine"
	"github.com/elonfeng/hypefinder/internal/metrics"
	"github.com/elonfeng/hypefinder/internal/store"
	"github.com/elonfeng/hypefinder/pkg/parser"
	"github.com/elonfeng/hypefinder/pkg/scorer"
	"github.com/elonfeng/hypefinder/pkg/source"
)

// Server provides the HTTP API.
type Server struct {
	engine *engine.Engine
	store  store.Store
	port   int
}

// New creates a new HTTP server.
func New(e *engine.Engine, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		engine: e,
		store:  e.Store(),
		port:   port,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/hype", s.handleHype)
	mux.HandleFunc("/api/v1/hype/", s.handleTicker)
	mux.HandleFunc("/api/v1/summary", s.handleSummary)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/sources", s.handleSources)
	mux.HandleFunc("/api/v1/scan", s.handleScan)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// ListenAndServe serves the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("hypefinder server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// latest writes the error response itself and returns nil when there is no
// usable scan.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) *engine.ScanReport {
	report, err := s.engine.Latest(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no scan has been run yet")
		return nil
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	return report
}

func (s *Server) handleHype(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report := s.latest(w, r)
	if report == nil {
		return
	}

	results := report.Results
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n < len(results) {
			results = results[:n]
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scan":  report.Scan,
		"data":  results,
		"count": len(results),
	})
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ticker := parser.CleanTicker(strings.TrimPrefix(r.URL.Path, "/api/v1/hype/"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "missing ticker")
		return
	}

	report := s.latest(w, r)
	if report == nil {
		return
	}

	for _, res := range report.Results {
		if res.Ticker == ticker {
			writeJSON(w, http.StatusOK, map[string]any{
				"scan":        report.Scan,
				"data":        res,
				"explanation": scorer.Explain(ticker, res),
			})
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("$%s is not ranked in the latest scan", ticker))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report := s.latest(w, r)
	if report == nil {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scan": report.Scan,
		"data": s.engine.Scorer().Summarize(report.Results),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ticker := parser.CleanTicker(r.URL.Query().Get("ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "missing ticker")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	points, err := s.store.TickerHistory(r.Context(), ticker, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"data":   points,
		"count":  len(points),
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	counts, err := s.store.CountPostsBySource(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type sourceInfo struct {
		Name    string `json:"name"`
		Enabled bool   `json:"enabled"`
		Posts   int    `json:"posts"`
	}

	enabled := make(map[source.SourceType]bool)
	for _, src := range s.engine.Sources() {
		enabled[src.Name()] = true
	}

	// Known types first, then anything else found in the store.
	names := source.AllSourceTypes()
	var extra []source.SourceType
	for st := range counts {
		if !slices.Contains(names, st) {
			extra = append(extra, st)
		}
	}
	slices.Sort(extra)
	names = append(names, extra...)

	infos := make([]sourceInfo, 0, len(names))
	for _, st := range names {
		infos = append(infos, sourceInfo{
			Name:    string(st),
			Enabled: enabled[st],
			Posts:   counts[st],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	opts := engine.ScanOpts{NoSave: r.URL.Query().Get("save") == "false"}
	if v := r.URL.Query().Get("lookback"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "invalid lookback")
			return
		}
		opts.Lookback = d
	}

	report, err := s.engine.Scan(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scan":  report.Scan,
		"saved": report.Saved,
		"data":  report.Results,
		"count": len(report.Results),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
