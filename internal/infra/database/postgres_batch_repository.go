package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/calendar"
)

const dateLayout = "2006-01-02"

type PostgresBatchRepository struct {
	db *sql.DB
}

func NewPostgresBatchRepository(db *sql.DB) *PostgresBatchRepository {
	return &PostgresBatchRepository{db: db}
}

const batchColumns = `id, class_name, batch_number, start_date, start_weekday, status, created_at`

func scanBatch(row interface{ Scan(...any) error }) (*batch.Batch, error) {
	b := &batch.Batch{}
	var weekday int
	if err := row.Scan(&b.ID, &b.ClassName, &b.Number, &b.StartDate, &weekday, &b.Status, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.StartDate = calendar.Date(b.StartDate)
	b.StartWeekday = time.Weekday(weekday)
	return b, nil
}

// Create inserts the batch; a conflict on either unique key inserts nothing
// and is reported as batch.ErrDuplicate.
func (r *PostgresBatchRepository) Create(ctx context.Context, b *batch.Batch) error {
	query := `INSERT INTO batches (class_name, batch_number, start_date, start_weekday, status)
               VALUES ($1, $2, $3, $4, $5)
               ON CONFLICT DO NOTHING
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		b.ClassName, b.Number, b.StartDate.Format(dateLayout), int(b.StartWeekday), b.Status,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err, "") {
			return batch.ErrDuplicate
		}
		return fmt.Errorf("error creating batch: %w", err)
	}
	b.StartDate = calendar.Date(b.StartDate)
	return nil
}

func (r *PostgresBatchRepository) GetByID(ctx context.Context, id int64) (*batch.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`
	b, err := scanBatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, batch.ErrNotFound
		}
		return nil, fmt.Errorf("error getting batch by ID: %w", err)
	}
	return b, nil
}

func (r *PostgresBatchRepository) GetByClassAndStartDate(ctx context.Context, className string, startDate time.Time) (*batch.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE class_name = $1 AND start_date = $2::date`
	b, err := scanBatch(r.db.QueryRowContext(ctx, query, className, startDate.Format(dateLayout)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, batch.ErrNotFound
		}
		return nil, fmt.Errorf("error getting batch by class and start date: %w", err)
	}
	return b, nil
}

func (r *PostgresBatchRepository) MaxNumber(ctx context.Context, className string) (int, error) {
	query := `SELECT COALESCE(MAX(batch_number), 0) FROM batches WHERE class_name = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, query, className).Scan(&n); err != nil {
		return 0, fmt.Errorf("error reading max batch number: %w", err)
	}
	return n, nil
}

func (r *PostgresBatchRepository) ListActive(ctx context.Context) ([]*batch.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE status = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, batch.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("error listing active batches: %w", err)
	}
	defer rows.Close()

	batches := make([]*batch.Batch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning active batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active batches: %w", err)
	}
	return batches, nil
}
