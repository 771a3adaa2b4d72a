package enrollment

import (
	"context"
	"fmt"
	"time"
)

type AccessLevel string

const (
	AccessLimited AccessLevel = "limited"
	AccessFull    AccessLevel = "full"
)

// ParseAccessLevel accepts "limited" or "full".
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch AccessLevel(s) {
	case AccessLimited, AccessFull:
		return AccessLevel(s), nil
	default:
		return "", fmt.Errorf("unknown access level %q", s)
	}
}

// Enrollment links a user to a batch. At most one per (UserID, BatchID).
type Enrollment struct {
	ID          int64
	UserID      int64 // Telegram user id
	BatchID     int64
	AccessLevel AccessLevel
	CreatedAt   time.Time
}

var ErrNotFound = fmt.Errorf("enrollment not found")
var ErrDuplicate = fmt.Errorf("user already enrolled in this batch")

// Repository defines the persistence operations for enrollments.
type Repository interface {
	Create(ctx context.Context, e *Enrollment) error
	GetByUserAndBatch(ctx context.Context, userID, batchID int64) (*Enrollment, error)
}
