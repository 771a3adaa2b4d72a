package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/calendar"
	"class_schedule_bot/internal/domain/course"

	"github.com/sirupsen/logrus"
)

// createAttempts bounds retries when a concurrent writer takes the next batch number.
const createAttempts = 3

// BatchService opens a new batch of a recurring class on its anchor weekday.
type BatchService struct {
	catalog course.Catalog
	batches batch.Repository
	logger  *logrus.Entry
}

func NewBatchService(catalog course.Catalog, br batch.Repository, logger *logrus.Entry) *BatchService {
	return &BatchService{
		catalog: catalog,
		batches: br,
		logger:  logger.WithField("component", "batch_lifecycle"),
	}
}

// EnsureBatchForClass makes sure the class has a batch starting on today's
// date. today must already be in the canonical timezone. It returns the batch
// and whether this call created it; (nil, false, nil) means today is not the
// anchor weekday and manual was not requested.
func (s *BatchService) EnsureBatchForClass(ctx context.Context, className string, today time.Time, manual bool) (*batch.Batch, bool, error) {
	cls, ok := s.catalog.Lookup(className)
	if !ok || !cls.Active {
		return nil, false, fmt.Errorf("%w: %s", ErrConfigurationMissing, className)
	}

	if !manual && today.Weekday() != cls.AnchorWeekday {
		s.logger.WithFields(logrus.Fields{
			"class":   className,
			"weekday": today.Weekday().String(),
			"anchor":  cls.AnchorWeekday.String(),
		}).Debug("Not an anchor day, no batch to open")
		return nil, false, nil
	}

	startDate := calendar.Date(today)
	log := s.logger.WithFields(logrus.Fields{
		"class":      className,
		"start_date": startDate.Format("2006-01-02"),
	})

	existing, err := s.batches.GetByClassAndStartDate(ctx, className, startDate)
	if err == nil {
		log.WithField("batch_number", existing.Number).Debug("Batch already open for today")
		return existing, false, nil
	}
	if !errors.Is(err, batch.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to check existing batch for %s: %w", className, err)
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		maxNumber, err := s.batches.MaxNumber(ctx, className)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read last batch number for %s: %w", className, err)
		}

		newBatch := &batch.Batch{
			ClassName:    className,
			Number:       maxNumber + 1,
			StartDate:    startDate,
			StartWeekday: today.Weekday(),
			Status:       batch.StatusActive,
		}
		err = s.batches.Create(ctx, newBatch)
		if err == nil {
			log.WithFields(logrus.Fields{
				"batch_id":     newBatch.ID,
				"batch_number": newBatch.Number,
				"manual":       manual,
			}).Info("New batch opened")
			return newBatch, true, nil
		}
		if !errors.Is(err, batch.ErrDuplicate) {
			return nil, false, fmt.Errorf("failed to create batch for %s: %w", className, err)
		}

		// Another invocation won the race; return its batch if it is today's.
		existing, err = s.batches.GetByClassAndStartDate(ctx, className, startDate)
		if err == nil {
			log.WithField("batch_number", existing.Number).Debug("Duplicate skipped, batch opened concurrently")
			return existing, false, nil
		}
		if !errors.Is(err, batch.ErrNotFound) {
			return nil, false, fmt.Errorf("failed to reload batch for %s: %w", className, err)
		}
	}
	return nil, false, fmt.Errorf("failed to allocate batch number for %s after %d attempts", className, createAttempts)
}
