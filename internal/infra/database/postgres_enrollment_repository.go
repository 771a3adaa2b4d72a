package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"class_schedule_bot/internal/domain/enrollment"
)

type PostgresEnrollmentRepository struct {
	db *sql.DB
}

func NewPostgresEnrollmentRepository(db *sql.DB) *PostgresEnrollmentRepository {
	return &PostgresEnrollmentRepository{db: db}
}

func (r *PostgresEnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	query := `INSERT INTO enrollments (user_id, batch_id, access_level)
               VALUES ($1, $2, $3)
               ON CONFLICT (user_id, batch_id) DO NOTHING
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, e.UserID, e.BatchID, e.AccessLevel).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err, "enrollment_user_batch_unique") {
			return enrollment.ErrDuplicate
		}
		return fmt.Errorf("error creating enrollment: %w", err)
	}
	return nil
}

func (r *PostgresEnrollmentRepository) GetByUserAndBatch(ctx context.Context, userID, batchID int64) (*enrollment.Enrollment, error) {
	query := `SELECT id, user_id, batch_id, access_level, created_at
               FROM enrollments WHERE user_id = $1 AND batch_id = $2`
	e := &enrollment.Enrollment{}
	err := r.db.QueryRowContext(ctx, query, userID, batchID).Scan(&e.ID, &e.UserID, &e.BatchID, &e.AccessLevel, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, enrollment.ErrNotFound
		}
		return nil, fmt.Errorf("error getting enrollment: %w", err)
	}
	return e, nil
}
