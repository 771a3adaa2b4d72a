// internal/domain/notification/status.go
package notification

import (
	"database/sql"
	"time"
)

// Status of a delivery attempt for one (session, offset) pair.
type Status string

const (
	StatusPending Status = "pending" // claimed, channels being called
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Outcome is the result of sending to a single target.
type Outcome struct {
	Channel ChannelKind `json:"channel"`
	Address string      `json:"address"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	// TimedOut is set when the call was abandoned on its deadline; the
	// channel may still have delivered the message.
	TimedOut bool `json:"timed_out,omitempty"`
}

// Record tracks the reminder for one (SessionID, Offset) pair.
// Corresponds to the 'notification_records' table; (session_id, reminder_offset) is unique.
type Record struct {
	ID          int64
	SessionID   int64
	Offset      Offset
	Status      Status
	SentAt      sql.NullTime
	Outcomes    []Outcome
	ErrorDetail sql.NullString
	Attempts    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MayHaveDelivered reports whether any target of a failed record timed out,
// so resending could duplicate the reminder.
func (r *Record) MayHaveDelivered() bool {
	for _, o := range r.Outcomes {
		if o.TimedOut {
			return true
		}
	}
	return false
}
