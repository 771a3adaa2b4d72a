package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"class_schedule_bot/internal/domain/session"
)

// SessionService moves sessions through scheduled -> in_progress -> completed.
type SessionService struct {
	sessions session.Repository
}

func NewSessionService(sr session.Repository) *SessionService {
	return &SessionService{sessions: sr}
}

// Start marks a scheduled session as in progress.
func (s *SessionService) Start(ctx context.Context, id int64) error {
	return s.transition(ctx, id, session.StatusScheduled, session.StatusInProgress)
}

// Complete marks an in-progress session as completed.
func (s *SessionService) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, id, session.StatusInProgress, session.StatusCompleted)
}

// Upcoming lists up to limit sessions of a batch starting at or after from.
func (s *SessionService) Upcoming(ctx context.Context, batchID int64, from time.Time, limit int) ([]*session.Session, error) {
	list, err := s.sessions.ListByBatch(ctx, batchID, from, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions of batch %d: %w", batchID, err)
	}
	return list, nil
}

func (s *SessionService) transition(ctx context.Context, id int64, from, to session.Status) error {
	err := s.sessions.UpdateStatus(ctx, id, from, to)
	if err == nil {
		return nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("failed to update session %d: %w", id, err)
	}

	current, getErr := s.sessions.GetByID(ctx, id)
	if getErr != nil {
		return getErr
	}
	return fmt.Errorf("%w: session %d is %s, want %s", ErrInvalidTransition, id, current.Status, from)
}
