package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/calendar"
	"class_schedule_bot/internal/domain/course"
	"class_schedule_bot/internal/domain/session"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// GeneratorSettings tune how far ahead sessions are materialized.
type GeneratorSettings struct {
	HorizonDays int
	// ToppedUpSessions skips a batch that already has this many sessions from
	// tomorrow on. 0 means HorizonDays times the class slot count.
	ToppedUpSessions int
	MaxParallel      int
}

// GenerationResult describes one GenerateForBatch call.
type GenerationResult struct {
	BatchID           int64
	Sessions          []*session.Session // created by this call
	DaysSkipped       int                // days that already had sessions
	DuplicatesSkipped int                // slots created concurrently by another invocation
	Errors            []error            // per-session store failures
}

// GenerationReport aggregates GenerateAllDueSessions.
type GenerationReport struct {
	SessionsCreated   int
	DuplicatesSkipped int
	BatchesToppedUp   int
	Errors            []error
}

// SessionGenerator materializes dated sessions for active batches.
type SessionGenerator struct {
	catalog  course.Catalog
	batches  batch.Repository
	sessions session.Repository
	content  course.ContentRepository
	clock    Clock
	settings GeneratorSettings
	logger   *logrus.Entry
}

func NewSessionGenerator(
	catalog course.Catalog,
	br batch.Repository,
	sr session.Repository,
	cr course.ContentRepository,
	clock Clock,
	settings GeneratorSettings,
	logger *logrus.Entry,
) *SessionGenerator {
	if settings.MaxParallel < 1 {
		settings.MaxParallel = 1
	}
	return &SessionGenerator{
		catalog:  catalog,
		batches:  br,
		sessions: sr,
		content:  cr,
		clock:    clock,
		settings: settings,
		logger:   logger.WithField("component", "session_generator"),
	}
}

// GenerateForBatch creates sessions for every day in [tomorrow, tomorrow+horizonDays)
// and every slot. Days that already have a session are skipped, so re-running is a no-op
// for covered days. An empty curriculum aborts the batch with ErrNoContentAvailable.
func (g *SessionGenerator) GenerateForBatch(ctx context.Context, b *batch.Batch, horizonDays int, slots []course.Slot) (*GenerationResult, error) {
	cls, ok := g.catalog.Lookup(b.ClassName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConfigurationMissing, b.ClassName)
	}

	items, err := g.content.ListByClass(ctx, b.ClassName)
	if err != nil {
		return nil, fmt.Errorf("failed to load curriculum for %s: %w", b.ClassName, err)
	}

	loc := g.clock.Location()
	todayDate, _ := today(g.clock)
	result := &GenerationResult{BatchID: b.ID}
	log := g.logger.WithFields(logrus.Fields{
		"batch_id":     b.ID,
		"class":        b.ClassName,
		"batch_number": b.Number,
	})

	for i := 1; i <= horizonDays; i++ {
		day := calendar.AddDays(todayDate, i)
		ordinal := calendar.DaysBetween(b.StartDate, day)
		if ordinal < 1 {
			continue
		}

		exists, err := g.sessions.ExistsForDay(ctx, b.ID, day)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("batch %d day %s: failed to check sessions: %w", b.ID, day.Format("2006-01-02"), err))
			continue
		}
		if exists {
			result.DaysSkipped++
			continue
		}

		item, err := Resolve(items, ordinal, cls.RotationCap)
		if err != nil {
			return result, fmt.Errorf("batch %d (%s): %w", b.ID, b.ClassName, err)
		}

		created, failed := 0, 0
		for _, slot := range slots {
			s := &session.Session{
				BatchID:         b.ID,
				ClassName:       b.ClassName,
				Ordinal:         ordinal,
				ContentItemID:   item.ID,
				ContentPosition: item.Position,
				ContentTitle:    item.Title,
				SessionDate:     day,
				Slot:            slot.String(),
				ScheduledAt:     calendar.At(day, slot.Hour, slot.Minute, loc),
				Status:          session.StatusScheduled,
				IsFree:          item.Position < cls.FreeThreshold,
			}
			err := g.sessions.Create(ctx, s)
			switch {
			case err == nil:
				created++
				result.Sessions = append(result.Sessions, s)
			case errors.Is(err, session.ErrDuplicate):
				created++
				result.DuplicatesSkipped++
			default:
				failed++
				result.Errors = append(result.Errors, fmt.Errorf("batch %d session %s %s: %w", b.ID, day.Format("2006-01-02"), slot, err))
			}
		}
		// A day with any session is skipped on later runs.
		if failed > 0 && created > 0 {
			result.Errors = append(result.Errors, fmt.Errorf("batch %d day %s: %w: %d of %d slots missing",
				b.ID, day.Format("2006-01-02"), ErrPartialDay, failed, len(slots)))
		}
	}

	log.WithFields(logrus.Fields{
		"created":            len(result.Sessions),
		"days_skipped":       result.DaysSkipped,
		"duplicates_skipped": result.DuplicatesSkipped,
		"errors":             len(result.Errors),
	}).Debug("Batch sessions generated")
	return result, nil
}

// GenerateAllDueSessions tops up every active batch. Batches are processed in
// parallel and one batch failing never stops the others.
func (g *SessionGenerator) GenerateAllDueSessions(ctx context.Context, horizonDays int) *GenerationReport {
	report := &GenerationReport{}

	activeBatches, err := g.batches.ListActive(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("failed to list active batches: %w", err))
		return report
	}

	todayDate, _ := today(g.clock)
	tomorrow := calendar.StartOfDay(calendar.AddDays(todayDate, 1), g.clock.Location())

	var mu sync.Mutex
	group := new(errgroup.Group)
	group.SetLimit(g.settings.MaxParallel)

	for _, b := range activeBatches {
		b := b
		group.Go(func() error {
			log := g.logger.WithFields(logrus.Fields{"batch_id": b.ID, "class": b.ClassName})

			cls, ok := g.catalog.Lookup(b.ClassName)
			if !ok {
				log.Warn("Active batch has no class configuration, skipping")
				return nil
			}

			threshold := g.settings.ToppedUpSessions
			if threshold <= 0 {
				threshold = horizonDays * len(cls.Slots)
			}
			upcoming, err := g.sessions.CountFrom(ctx, b.ID, tomorrow)
			if err != nil {
				mu.Lock()
				report.Errors = append(report.Errors, fmt.Errorf("batch %d: failed to count sessions: %w", b.ID, err))
				mu.Unlock()
				return nil
			}
			if upcoming >= threshold {
				log.WithField("upcoming", upcoming).Debug("Batch topped up")
				mu.Lock()
				report.BatchesToppedUp++
				mu.Unlock()
				return nil
			}

			res, err := g.GenerateForBatch(ctx, b, horizonDays, cls.Slots)

			mu.Lock()
			defer mu.Unlock()
			if res != nil {
				report.SessionsCreated += len(res.Sessions)
				report.DuplicatesSkipped += res.DuplicatesSkipped
				report.Errors = append(report.Errors, res.Errors...)
			}
			if err != nil {
				log.WithError(err).Error("Session generation aborted for batch")
				report.Errors = append(report.Errors, err)
			}
			return nil
		})
	}
	_ = group.Wait()

	return report
}
