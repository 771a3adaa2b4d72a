package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"class_schedule_bot/internal/domain/calendar"
	"class_schedule_bot/internal/domain/session"
)

type PostgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

const sessionColumns = `id, batch_id, class_name, ordinal, content_item_id, content_position, content_title,
               session_date, slot, scheduled_at, status, is_free, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*session.Session, error) {
	s := &session.Session{}
	err := row.Scan(
		&s.ID, &s.BatchID, &s.ClassName, &s.Ordinal, &s.ContentItemID, &s.ContentPosition, &s.ContentTitle,
		&s.SessionDate, &s.Slot, &s.ScheduledAt, &s.Status, &s.IsFree, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.SessionDate = calendar.Date(s.SessionDate)
	return s, nil
}

// Helper to scan multiple rows
func scanSessions(rows *sql.Rows) ([]*session.Session, error) {
	sessions := make([]*session.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

// Create inserts the session; an existing (batch_id, session_date, slot) row
// makes it a no-op reported as session.ErrDuplicate.
func (r *PostgresSessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `INSERT INTO sessions (batch_id, class_name, ordinal, content_item_id, content_position, content_title,
                                   session_date, slot, scheduled_at, status, is_free)
               VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9, $10, $11)
               ON CONFLICT (batch_id, session_date, slot) DO NOTHING
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.BatchID, s.ClassName, s.Ordinal, s.ContentItemID, s.ContentPosition, s.ContentTitle,
		s.SessionDate.Format(dateLayout), s.Slot, s.ScheduledAt, s.Status, s.IsFree,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err, "session_batch_day_slot_unique") {
			return session.ErrDuplicate
		}
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id int64) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("error getting session by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSessionRepository) ExistsForDay(ctx context.Context, batchID int64, day time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM sessions WHERE batch_id = $1 AND session_date = $2::date)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, batchID, day.Format(dateLayout)).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking sessions for day: %w", err)
	}
	return exists, nil
}

func (r *PostgresSessionRepository) CountFrom(ctx context.Context, batchID int64, from time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE batch_id = $1 AND scheduled_at >= $2`
	var n int
	if err := r.db.QueryRowContext(ctx, query, batchID, from).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}
	return n, nil
}

func (r *PostgresSessionRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
               WHERE status = $1 AND scheduled_at BETWEEN $2 AND $3
               ORDER BY scheduled_at, id`
	rows, err := r.db.QueryContext(ctx, query, session.StatusScheduled, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying scheduled sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (r *PostgresSessionRepository) ListByBatch(ctx context.Context, batchID int64, from time.Time, limit int) ([]*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
               WHERE batch_id = $1 AND scheduled_at >= $2
               ORDER BY scheduled_at, id`
	args := []any{batchID, from}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying sessions by batch: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// UpdateStatus only touches the row while it is still in status from.
func (r *PostgresSessionRepository) UpdateStatus(ctx context.Context, id int64, from, to session.Status) error {
	query := `UPDATE sessions SET status = $1, updated_at = NOW()
               WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("error updating session status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading updated rows: %w", err)
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}
