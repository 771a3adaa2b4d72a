package app

import (
	"context"
	"errors"
	"fmt"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/enrollment"
	"class_schedule_bot/internal/domain/session"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrAlreadyEnrolled = fmt.Errorf("user is already enrolled in this batch")
var ErrBatchClosed = fmt.Errorf("batch is closed")

// UpcomingBatch pairs an active batch with its next sessions.
type UpcomingBatch struct {
	Batch    *batch.Batch
	Sessions []*session.Session
}

type AdminService struct {
	batches         batch.Repository
	sessions        session.Repository
	enrollments     enrollment.Repository
	batchService    *BatchService
	runner          *CycleRunner
	clock           Clock
	adminTelegramID int64
}

func NewAdminService(
	br batch.Repository,
	sr session.Repository,
	er enrollment.Repository,
	bs *BatchService,
	runner *CycleRunner,
	clock Clock,
	adminID int64,
) *AdminService {
	return &AdminService{
		batches:         br,
		sessions:        sr,
		enrollments:     er,
		batchService:    bs,
		runner:          runner,
		clock:           clock,
		adminTelegramID: adminID,
	}
}

// OpenBatch opens today's batch for the class regardless of the anchor weekday.
func (s *AdminService) OpenBatch(ctx context.Context, performingAdminID int64, className string) (*batch.Batch, bool, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, false, ErrAdminNotAuthorized
	}
	_, now := today(s.clock)
	return s.batchService.EnsureBatchForClass(ctx, className, now, true)
}

// Enroll handles the business logic for adding a user to a batch.
func (s *AdminService) Enroll(ctx context.Context, performingAdminID, userID, batchID int64, level enrollment.AccessLevel) (*enrollment.Enrollment, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}

	b, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, batch.ErrNotFound) {
			return nil, batch.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get batch %d: %w", batchID, err)
	}
	if b.Status != batch.StatusActive {
		return nil, ErrBatchClosed
	}

	newEnrollment := &enrollment.Enrollment{
		UserID:      userID,
		BatchID:     batchID,
		AccessLevel: level,
	}
	err = s.enrollments.Create(ctx, newEnrollment)
	if err != nil {
		if errors.Is(err, enrollment.ErrDuplicate) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment in repository: %w", err)
	}
	return newEnrollment, nil
}

// RunCycle runs one scheduling cycle on demand.
func (s *AdminService) RunCycle(ctx context.Context, performingAdminID int64) (*CycleReport, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	return s.runner.RunSchedulingCycle(ctx), nil
}

// Upcoming lists active batches of a class with up to limit future sessions each.
func (s *AdminService) Upcoming(ctx context.Context, performingAdminID int64, className string, limit int) ([]UpcomingBatch, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}

	active, err := s.batches.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active batches: %w", err)
	}

	now := s.clock.Now()
	var out []UpcomingBatch
	for _, b := range active {
		if b.ClassName != className {
			continue
		}
		list, err := s.sessions.ListByBatch(ctx, b.ID, now, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions of batch %d: %w", b.ID, err)
		}
		out = append(out, UpcomingBatch{Batch: b, Sessions: list})
	}
	return out, nil
}
