package app

import (
	"context"
	"errors"
	"time"

	"class_schedule_bot/internal/domain/course"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CycleReport summarizes one RunSchedulingCycle call.
type CycleReport struct {
	RunID               uuid.UUID
	StartedAt           time.Time
	FinishedAt          time.Time
	BatchesCreated      int
	SessionsCreated     int
	DuplicatesSkipped   int
	NotificationsSent   int
	NotificationsFailed int
	Errors              []error
}

// Err joins every collected error, nil when the cycle was clean.
func (r *CycleReport) Err() error {
	return joinErrors(r.Errors)
}

// CycleRunner is the single entrypoint the external trigger calls.
type CycleRunner struct {
	catalog     course.Catalog
	batches     *BatchService
	generator   *SessionGenerator
	reminders   *ReminderService
	clock       Clock
	horizonDays int
	logger      *logrus.Entry
}

func NewCycleRunner(
	catalog course.Catalog,
	bs *BatchService,
	gen *SessionGenerator,
	rs *ReminderService,
	clock Clock,
	horizonDays int,
	logger *logrus.Entry,
) *CycleRunner {
	return &CycleRunner{
		catalog:     catalog,
		batches:     bs,
		generator:   gen,
		reminders:   rs,
		clock:       clock,
		horizonDays: horizonDays,
		logger:      logger.WithField("component", "cycle"),
	}
}

// RunSchedulingCycle opens due batches, tops up sessions, then dispatches due
// reminders, in that order. It always runs to completion; overlapping calls
// are made safe by the store's uniqueness constraints. Cancellation of ctx is
// ignored.
func (r *CycleRunner) RunSchedulingCycle(ctx context.Context) *CycleReport {
	ctx = context.WithoutCancel(ctx)
	report := &CycleReport{RunID: uuid.New(), StartedAt: r.clock.Now()}
	log := r.logger.WithField("run_id", report.RunID.String())
	log.Info("Scheduling cycle started")

	_, now := today(r.clock)
	for _, name := range r.catalog.Names() {
		_, created, err := r.batches.EnsureBatchForClass(ctx, name, now, false)
		if err != nil {
			if errors.Is(err, ErrConfigurationMissing) {
				log.WithField("class", name).Debug("Class inactive, no batch ensured")
				continue
			}
			log.WithError(err).WithField("class", name).Error("Failed to ensure batch")
			report.Errors = append(report.Errors, err)
			continue
		}
		if created {
			report.BatchesCreated++
		}
	}

	gen := r.generator.GenerateAllDueSessions(ctx, r.horizonDays)
	report.SessionsCreated = gen.SessionsCreated
	report.DuplicatesSkipped = gen.DuplicatesSkipped
	report.Errors = append(report.Errors, gen.Errors...)

	disp := r.reminders.DispatchDueReminders(ctx)
	report.NotificationsSent = disp.Sent
	report.NotificationsFailed = disp.Failed
	report.DuplicatesSkipped += disp.DuplicatesSkipped
	report.Errors = append(report.Errors, disp.Errors...)

	report.FinishedAt = r.clock.Now()
	entry := log.WithFields(logrus.Fields{
		"batches_created":      report.BatchesCreated,
		"sessions_created":     report.SessionsCreated,
		"duplicates_skipped":   report.DuplicatesSkipped,
		"notifications_sent":   report.NotificationsSent,
		"notifications_failed": report.NotificationsFailed,
		"errors":               len(report.Errors),
	})
	if len(report.Errors) > 0 {
		entry.WithError(report.Err()).Warn("Scheduling cycle finished with errors")
	} else {
		entry.Info("Scheduling cycle finished")
	}
	return report
}
