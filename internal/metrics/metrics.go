package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scan metrics
	Scans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypefinder_scans_total",
			Help: "Total number of hype scans",
		},
		[]string{"status"}, // status: success|error
	)

	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hypefinder_scan_duration_seconds",
			Help:    "Hype scan duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	TickersScored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hypefinder_tickers_scored",
			Help: "Number of tickers ranked by the last scan",
		},
	)

	TopHypeScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hypefinder_top_hype_score",
			Help: "Hype score of the top ranked ticker in the last scan",
		},
	)

	// Collection metrics
	PostsCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypefinder_posts_collected_total",
			Help: "Total number of posts collected",
		},
		[]string{"source"},
	)

	CollectErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypefinder_collect_errors_total",
			Help: "Total number of failed source collections",
		},
		[]string{"source"},
	)

	AlertsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypefinder_alerts_total",
			Help: "Total number of ticker alerts",
		},
		[]string{"status"}, // status: sent|suppressed|error
	)
)

func init() {
	prometheus.MustRegister(Scans)
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(TickersScored)
	prometheus.MustRegister(TopHypeScore)
	prometheus.MustRegister(PostsCollected)
	prometheus.MustRegister(CollectErrors)
	prometheus.MustRegister(AlertsSent)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordScan records a finished scan
func RecordScan(duration time.Duration, tickers int, topScore float64, err error) {
	if err != nil {
		Scans.WithLabelValues("error").Inc()
		return
	}
	Scans.WithLabelValues("success").Inc()
	ScanDuration.Observe(duration.Seconds())
	TickersScored.Set(float64(tickers))
	TopHypeScore.Set(topScore)
}

// RecordCollect records one source's collection run
func RecordCollect(source string, posts int, err error) {
	if err != nil {
		CollectErrors.WithLabelValues(source).Inc()
	}
	PostsCollected.WithLabelValues(source).Add(float64(posts))
}

// RecordAlert records an alert outcome
func RecordAlert(status string) {
	AlertsSent.WithLabelValues(status).Inc()
}
