package batch

import (
	"context"
	"fmt"
	"time"
)

var ErrNotFound = fmt.Errorf("batch not found")
var ErrDuplicate = fmt.Errorf("batch already exists (class_name, start_date) or (class_name, batch_number)")

// Repository defines the persistence operations for batches.
type Repository interface {
	// Create inserts b atomically or returns ErrDuplicate when a batch for the
	// same class and start date (or number) already exists.
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id int64) (*Batch, error)
	GetByClassAndStartDate(ctx context.Context, className string, startDate time.Time) (*Batch, error)
	// MaxNumber returns the highest batch number of the class, 0 when none exist.
	MaxNumber(ctx context.Context, className string) (int, error)
	ListActive(ctx context.Context) ([]*Batch, error)
}
