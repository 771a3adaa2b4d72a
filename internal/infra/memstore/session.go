package memstore

import (
	"context"
	"sort"
	"time"

	"class_schedule_bot/internal/domain/calendar"
	"class_schedule_bot/internal/domain/session"
)

var _ session.Repository = (*SessionRepository)(nil)

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(_ context.Context, s *session.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	day := calendar.Date(s.SessionDate)
	for _, existing := range r.db.sessions {
		if existing.BatchID == s.BatchID && existing.SessionDate.Equal(day) && existing.Slot == s.Slot {
			return session.ErrDuplicate
		}
	}

	now := r.db.now()
	s.ID = r.db.id()
	s.SessionDate = day
	s.CreatedAt = now
	s.UpdatedAt = now
	cp := *s
	r.db.sessions[s.ID] = &cp
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, id int64) (*session.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if s, ok := r.db.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, session.ErrNotFound
}

func (r *SessionRepository) ExistsForDay(_ context.Context, batchID int64, day time.Time) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	d := calendar.Date(day)
	for _, s := range r.db.sessions {
		if s.BatchID == batchID && s.SessionDate.Equal(d) {
			return true, nil
		}
	}
	return false, nil
}

func (r *SessionRepository) CountFrom(_ context.Context, batchID int64, from time.Time) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n := 0
	for _, s := range r.db.sessions {
		if s.BatchID == batchID && !s.ScheduledAt.Before(from) {
			n++
		}
	}
	return n, nil
}

func (r *SessionRepository) ListScheduledBetween(_ context.Context, from, to time.Time) ([]*session.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*session.Session, 0)
	for _, s := range r.db.sessions {
		if s.Status != session.StatusScheduled || s.ScheduledAt.Before(from) || s.ScheduledAt.After(to) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sortByTime(out)
	return out, nil
}

func (r *SessionRepository) ListByBatch(_ context.Context, batchID int64, from time.Time, limit int) ([]*session.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*session.Session, 0)
	for _, s := range r.db.sessions {
		if s.BatchID == batchID && !s.ScheduledAt.Before(from) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sortByTime(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SessionRepository) UpdateStatus(_ context.Context, id int64, from, to session.Status) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[id]
	if !ok || s.Status != from {
		return session.ErrNotFound
	}
	s.Status = to
	s.UpdatedAt = r.db.now()
	return nil
}

func sortByTime(list []*session.Session) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].ScheduledAt.Equal(list[j].ScheduledAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].ScheduledAt.Before(list[j].ScheduledAt)
	})
}
