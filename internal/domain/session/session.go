// internal/domain/session/session.go
package session

import "time"

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Session is one dated occurrence of a batch in a time slot.
// Unique per (BatchID, SessionDate, Slot).
type Session struct {
	ID              int64
	BatchID         int64
	ClassName       string
	Ordinal         int // calendar days since the batch start date
	ContentItemID   int64
	ContentPosition int
	ContentTitle    string
	SessionDate     time.Time // civil date
	Slot            string    // "HH:MM"
	ScheduledAt     time.Time
	Status          Status
	IsFree          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
