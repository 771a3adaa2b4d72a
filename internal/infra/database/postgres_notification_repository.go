// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"class_schedule_bot/internal/domain/notification"
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

const recordColumns = `id, session_id, reminder_offset, status, sent_at, outcomes, error_detail, attempts, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*notification.Record, error) {
	rec := &notification.Record{}
	var offset int
	var outcomes []byte
	err := row.Scan(&rec.ID, &rec.SessionID, &offset, &rec.Status, &rec.SentAt, &outcomes, &rec.ErrorDetail, &rec.Attempts, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Offset = notification.Offset(offset)
	if len(outcomes) > 0 {
		if err := json.Unmarshal(outcomes, &rec.Outcomes); err != nil {
			return nil, fmt.Errorf("error decoding outcomes of record %d: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// Create is the claim: the unique (session_id, reminder_offset) key lets only
// one caller insert; everyone else gets notification.ErrDuplicateRecord.
func (r *PostgresNotificationRepository) Create(ctx context.Context, rec *notification.Record) error {
	query := `INSERT INTO notification_records (session_id, reminder_offset, status, attempts)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (session_id, reminder_offset) DO NOTHING
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, rec.SessionID, int(rec.Offset), rec.Status, rec.Attempts).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err, "notification_session_offset_unique") {
			return notification.ErrDuplicateRecord
		}
		return fmt.Errorf("error creating notification record: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) Get(ctx context.Context, sessionID int64, offset notification.Offset) (*notification.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM notification_records WHERE session_id = $1 AND reminder_offset = $2`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, sessionID, int(offset)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notification.ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting notification record: %w", err)
	}
	return rec, nil
}

func (r *PostgresNotificationRepository) Reclaim(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE notification_records
               SET status = $1, attempts = attempts + 1, error_detail = NULL, updated_at = NOW()
               WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, notification.StatusPending, id, notification.StatusFailed)
	if err != nil {
		return false, fmt.Errorf("error reclaiming notification record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading reclaimed rows: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresNotificationRepository) Finish(ctx context.Context, rec *notification.Record) error {
	outcomes, err := json.Marshal(rec.Outcomes)
	if err != nil {
		return fmt.Errorf("error encoding outcomes: %w", err)
	}
	query := `UPDATE notification_records
               SET status = $1, sent_at = $2, outcomes = $3::jsonb, error_detail = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`
	err = r.db.QueryRowContext(ctx, query, rec.Status, rec.SentAt, string(outcomes), rec.ErrorDetail, rec.ID).Scan(&rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notification.ErrRecordNotFound
		}
		return fmt.Errorf("error finishing notification record: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListBySession(ctx context.Context, sessionID int64) ([]*notification.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM notification_records WHERE session_id = $1 ORDER BY reminder_offset`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error querying notification records: %w", err)
	}
	defer rows.Close()

	records := make([]*notification.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification records: %w", err)
	}
	return records, nil
}
