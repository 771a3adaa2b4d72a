package memstore

import (
	"context"
	"sort"

	"class_schedule_bot/internal/domain/notification"
)

var _ notification.Repository = (*NotificationRepository)(nil)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func copyRecord(r *notification.Record) *notification.Record {
	cp := *r
	cp.Outcomes = append([]notification.Outcome(nil), r.Outcomes...)
	return &cp
}

func (r *NotificationRepository) Create(_ context.Context, rec *notification.Record) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.records {
		if existing.SessionID == rec.SessionID && existing.Offset == rec.Offset {
			return notification.ErrDuplicateRecord
		}
	}
	now := r.db.now()
	rec.ID = r.db.id()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.db.records[rec.ID] = copyRecord(rec)
	return nil
}

func (r *NotificationRepository) Get(_ context.Context, sessionID int64, offset notification.Offset) (*notification.Record, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, rec := range r.db.records {
		if rec.SessionID == sessionID && rec.Offset == offset {
			return copyRecord(rec), nil
		}
	}
	return nil, notification.ErrRecordNotFound
}

func (r *NotificationRepository) Reclaim(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rec, ok := r.db.records[id]
	if !ok {
		return false, notification.ErrRecordNotFound
	}
	if rec.Status != notification.StatusFailed {
		return false, nil
	}
	rec.Status = notification.StatusPending
	rec.Attempts++
	rec.UpdatedAt = r.db.now()
	return true, nil
}

func (r *NotificationRepository) Finish(_ context.Context, rec *notification.Record) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.records[rec.ID]
	if !ok {
		return notification.ErrRecordNotFound
	}
	rec.UpdatedAt = r.db.now()
	updated := copyRecord(rec)
	updated.CreatedAt = stored.CreatedAt
	r.db.records[rec.ID] = updated
	return nil
}

func (r *NotificationRepository) ListBySession(_ context.Context, sessionID int64) ([]*notification.Record, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*notification.Record, 0)
	for _, rec := range r.db.records {
		if rec.SessionID == sessionID {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}
