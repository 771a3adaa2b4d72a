package session

import (
	"context"
	"fmt"
	"time"
)

var ErrNotFound = fmt.Errorf("session not found")
var ErrDuplicate = fmt.Errorf("session already exists (batch_id, session_date, slot)")

// Repository defines the persistence operations for sessions.
type Repository interface {
	// Create inserts s atomically or returns ErrDuplicate.
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id int64) (*Session, error)
	ExistsForDay(ctx context.Context, batchID int64, day time.Time) (bool, error)
	// CountFrom counts sessions of the batch scheduled at or after from.
	CountFrom(ctx context.Context, batchID int64, from time.Time) (int, error)
	// ListScheduledBetween returns sessions still in StatusScheduled whose
	// ScheduledAt falls in [from, to], ordered by ScheduledAt.
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*Session, error)
	ListByBatch(ctx context.Context, batchID int64, from time.Time, limit int) ([]*Session, error)
	// UpdateStatus moves a session from one status to another. It returns
	// ErrNotFound when no session with that id is currently in status from.
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
}
