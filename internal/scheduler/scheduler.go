package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/elonfeng/hypefinder/internal/engine"
	"github.com/elonfeng/hypefinder/internal/metrics"
	"github.com/elonfeng/hypefinder/internal/store"
	"github.com/elonfeng/hypefinder/pkg/alert"
)

const jobTimeout = 10 * time.Minute

// Scheduler runs periodic collection and hype scans, alerting on tickers
// that newly cross the alert threshold.
type Scheduler struct {
	engine     *engine.Engine
	store      store.Store
	alertMgr   *alert.Manager
	cron       *cron.Cron
	collectInt time.Duration
	scanInt    time.Duration
	minScore   float64
}

// New creates a new scheduler.
func New(e *engine.Engine, alertMgr *alert.Manager, collectInt, scanInt time.Duration, minScore float64) *Scheduler {
	if collectInt == 0 {
		collectInt = 15 * time.Minute
	}
	if scanInt == 0 {
		scanInt = 30 * time.Minute
	}
	if alertMgr == nil {
		alertMgr = alert.NewManager(nil)
	}
	return &Scheduler{
		engine:     e,
		store:      e.Store(),
		alertMgr:   alertMgr,
		cron:       cron.New(),
		collectInt: collectInt,
		scanInt:    scanInt,
		minScore:   minScore,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.addJob(ctx, "collect", s.collectInt, s.CollectOnce); err != nil {
		return err
	}
	if err := s.addJob(ctx, "scan", s.scanInt, func(ctx context.Context) error {
		_, err := s.ScanOnce(ctx)
		return err
	}); err != nil {
		return err
	}

	// Run immediately on start.
	log.Info().Msg("initial collection")
	if err := s.CollectOnce(ctx); err != nil {
		log.Error().Err(err).Msg("initial collection failed")
	}
	log.Info().Msg("initial scan")
	if _, err := s.ScanOnce(ctx); err != nil {
		log.Error().Err(err).Msg("initial scan failed")
	}

	s.cron.Start()
	log.Info().
		Dur("collect_every", s.collectInt).
		Dur("scan_every", s.scanInt).
		Msg("scheduler running")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) addJob(ctx context.Context, name string, every time.Duration, job func(context.Context) error) error {
	spec := "@every " + every.String()
	_, err := s.cron.AddFunc(spec, func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job(jobCtx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("job failed")
			return
		}
		log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job completed")
	})
	if err != nil {
		return fmt.Errorf("schedule %s job %q: %w", name, spec, err)
	}
	return nil
}

// CollectOnce runs every collector and stores the posts.
func (s *Scheduler) CollectOnce(ctx context.Context) error {
	results, err := s.engine.Collect(ctx, "")
	if err != nil {
		return err
	}
	total := 0
	for _, r := range results {
		total += len(r.Posts)
	}
	log.Info().Int("posts", total).Msg("collection complete")
	return nil
}

// ScanOnce scores recent posts, saves the scan and sends alerts.
func (s *Scheduler) ScanOnce(ctx context.Context) (*engine.ScanReport, error) {
	// Alert state of the previous scan decides which tickers are new.
	alerted := map[string]bool{}
	prev, err := s.store.LatestScan(ctx)
	switch {
	case err == nil:
		if alerted, err = s.store.AlertedTickers(ctx, prev.ID); err != nil {
			return nil, err
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	report, err := s.engine.Scan(ctx, engine.ScanOpts{})
	if err != nil {
		return nil, err
	}

	if s.alertMgr.HasNotifiers() {
		s.alert(ctx, report, alerted)
	}
	return report, nil
}

// alert notifies about results at or above the threshold. A ticker already
// alerted in the previous scan stays flagged without a new notification, so
// it alerts again only after dropping out of a scan.
func (s *Scheduler) alert(ctx context.Context, report *engine.ScanReport, previouslyAlerted map[string]bool) {
	scanID := report.Scan.ID

	for _, r := range report.Results {
		if r.HypeScore < s.minScore {
			continue
		}

		if !previouslyAlerted[r.Ticker] {
			if err := s.alertMgr.Broadcast(ctx, alert.NewNotification(r)); err != nil {
				metrics.RecordAlert("error")
				log.Error().Err(err).Str("ticker", r.Ticker).Msg("alert failed")
				continue
			}
			metrics.RecordAlert("sent")
			log.Info().Str("ticker", r.Ticker).Float64("hype_score", r.HypeScore).Msg("alerted")
		} else {
			metrics.RecordAlert("suppressed")
		}

		if err := s.store.MarkAlerted(ctx, scanID, r.Ticker); err != nil {
			log.Error().Err(err).Str("ticker", r.Ticker).Msg("mark alerted failed")
		}
	}
}
