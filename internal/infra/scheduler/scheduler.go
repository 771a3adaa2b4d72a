package scheduler

import (
	"context"
	"fmt"
	"time"

	"class_schedule_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleRunner is what the trigger invokes on every tick.
type CycleRunner interface {
	RunSchedulingCycle(ctx context.Context) *app.CycleReport
}

// CycleScheduler is the external trigger: it calls RunSchedulingCycle every
// interval. Ticks may overlap when a cycle runs long; the store's uniqueness
// constraints keep overlapping cycles from duplicating work.
type CycleScheduler struct {
	cronEngine *cron.Cron
	runner     CycleRunner
	logger     *logrus.Entry
	interval   time.Duration
}

func NewCycleScheduler(runner CycleRunner, loc *time.Location, interval time.Duration, logger *logrus.Entry) *CycleScheduler {
	return &CycleScheduler{
		cronEngine: cron.New(cron.WithLocation(loc)),
		runner:     runner,
		logger:     logger.WithField("component", "scheduler"),
		interval:   interval,
	}
}

// Start registers the cycle job and starts the cron engine in the background.
func (s *CycleScheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cronEngine.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("could not add scheduling cycle job %q: %w", spec, err)
	}
	s.cronEngine.Start()
	s.logger.WithField("interval", s.interval.String()).Info("Cycle scheduler started")
	return nil
}

// tick runs one cycle to completion. Channel calls carry their own timeouts;
// the cycle itself has no deadline.
func (s *CycleScheduler) tick() {
	report := s.runner.RunSchedulingCycle(context.Background())
	if err := report.Err(); err != nil {
		s.logger.WithError(err).WithField("run_id", report.RunID.String()).Warn("Triggered cycle reported errors")
	}
}

// Stop stops new ticks and waits for a running cycle to finish.
func (s *CycleScheduler) Stop() {
	s.logger.Info("Stopping cycle scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Cycle scheduler gracefully stopped")
}
