package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordScan(t *testing.T) {
	before := testutil.ToFloat64(Scans.WithLabelValues("success"))
	RecordScan(250*time.Millisecond, 7, 1.25, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(Scans.WithLabelValues("success")))
	assert.Equal(t, 7.0, testutil.ToFloat64(TickersScored))
	assert.Equal(t, 1.25, testutil.ToFloat64(TopHypeScore))

	failed := testutil.ToFloat64(Scans.WithLabelValues("error"))
	RecordScan(0, 0, 0, errors.New("boom"))
	assert.Equal(t, failed+1, testutil.ToFloat64(Scans.WithLabelValues("error")))
	// A failed scan leaves the last gauges alone.
	assert.Equal(t, 7.0, testutil.ToFloat64(TickersScored))
}

func TestRecordCollect(t *testing.T) {
	RecordCollect("metrics_test", 12, nil)
	RecordCollect("metrics_test", 0, errors.New("timeout"))
	assert.Equal(t, 12.0, testutil.ToFloat64(PostsCollected.WithLabelValues("metrics_test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CollectErrors.WithLabelValues("metrics_test")))
}

func TestRecordAlert(t *testing.T) {
	before := testutil.ToFloat64(AlertsSent.WithLabelValues("suppressed"))
	RecordAlert("suppressed")
	assert.Equal(t, before+1, testutil.ToFloat64(AlertsSent.WithLabelValues("suppressed")))
}
