package jobs

import (
	"context"
	"time"

	"go2office/internal/logging"
	"go2office/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Recomputer rebuilds daily entries for a date range.
type Recomputer interface {
	RecomputeRange(ctx context.Context, from, to time.Time) (int, error)
}

// StaleSweeper force-closes sessions that exceeded the maximum duration.
type StaleSweeper interface {
	SweepStale(now time.Time) int
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	clock    func() time.Time
	timeout  time.Duration
	logger   *logrus.Logger
}

func NewScheduler(location *time.Location) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	logger := logging.New()
	cronLogger := cron.VerbosePrintfLogger(logger)

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		location: location,
		clock:    time.Now,
		timeout:  10 * time.Minute,
		logger:   logger,
	}
}

// AddNightlyRecompute recomputes yesterday's entries for every user.
func (s *Scheduler) AddNightlyRecompute(spec string, r Recomputer) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.RunRecompute(r)
	})
	if err != nil {
		return err
	}

	s.logger.WithField("schedule", spec).Info("Nightly recompute scheduled")
	return nil
}

// RunRecompute is the body of the nightly job.
func (s *Scheduler) RunRecompute(r Recomputer) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	yesterday := models.DateOf(s.clock(), s.location).AddDate(0, 0, -1)
	processed, err := r.RecomputeRange(ctx, yesterday, yesterday)
	if err != nil {
		s.logger.WithError(err).WithField("date", yesterday.Format(models.DateLayout)).Error("Nightly recompute failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"date":      yesterday.Format(models.DateLayout),
		"processed": processed,
	}).Info("Nightly recompute finished")
}

// AddStaleSweep checks for stale sessions every interval.
func (s *Scheduler) AddStaleSweep(interval time.Duration, sweeper StaleSweeper) {
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		n := sweeper.SweepStale(s.clock())
		s.logger.WithField("pipelines", n).Debug("Stale session sweep done")
	}))

	s.logger.WithField("interval", interval.String()).Info("Stale session sweep scheduled")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stopped before running jobs finished")
	}
}
