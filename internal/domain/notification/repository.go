// internal/domain/notification/repository.go
package notification

import (
	"context"
	"fmt"
)

var ErrRecordNotFound = fmt.Errorf("notification record not found")
var ErrDuplicateRecord = fmt.Errorf("notification record already exists (session_id, reminder_offset)")

// Repository defines operations for notification records.
type Repository interface {
	// Create inserts a pending record, or returns ErrDuplicateRecord when one
	// already exists for the (session, offset) pair. This is the claim step.
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, sessionID int64, offset Offset) (*Record, error)
	// Reclaim atomically moves a failed record back to pending. It reports
	// false when the record was not failed (another invocation took it).
	Reclaim(ctx context.Context, id int64) (bool, error)
	// Finish stores the final status, outcomes and error detail of r.
	Finish(ctx context.Context, r *Record) error
	ListBySession(ctx context.Context, sessionID int64) ([]*Record, error)
}
