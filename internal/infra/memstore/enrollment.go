package memstore

import (
	"context"

	"class_schedule_bot/internal/domain/enrollment"
)

var _ enrollment.Repository = (*EnrollmentRepository)(nil)

type EnrollmentRepository struct {
	db *DB
}

func NewEnrollmentRepository(db *DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Create(_ context.Context, e *enrollment.Enrollment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.enrollments {
		if existing.UserID == e.UserID && existing.BatchID == e.BatchID {
			return enrollment.ErrDuplicate
		}
	}
	e.ID = r.db.id()
	e.CreatedAt = r.db.now()
	cp := *e
	r.db.enrollments[e.ID] = &cp
	return nil
}

func (r *EnrollmentRepository) GetByUserAndBatch(_ context.Context, userID, batchID int64) (*enrollment.Enrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, e := range r.db.enrollments {
		if e.UserID == userID && e.BatchID == batchID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, enrollment.ErrNotFound
}
