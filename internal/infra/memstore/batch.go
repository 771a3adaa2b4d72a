package memstore

import (
	"context"
	"sort"
	"time"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/calendar"
)

var _ batch.Repository = (*BatchRepository)(nil)

type BatchRepository struct {
	db *DB
}

func NewBatchRepository(db *DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Create(_ context.Context, b *batch.Batch) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	start := calendar.Date(b.StartDate)
	for _, existing := range r.db.batches {
		if existing.ClassName != b.ClassName {
			continue
		}
		if existing.StartDate.Equal(start) || existing.Number == b.Number {
			return batch.ErrDuplicate
		}
	}

	b.ID = r.db.id()
	b.StartDate = start
	b.CreatedAt = r.db.now()
	cp := *b
	r.db.batches[b.ID] = &cp
	return nil
}

func (r *BatchRepository) GetByID(_ context.Context, id int64) (*batch.Batch, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if b, ok := r.db.batches[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, batch.ErrNotFound
}

func (r *BatchRepository) GetByClassAndStartDate(_ context.Context, className string, startDate time.Time) (*batch.Batch, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	start := calendar.Date(startDate)
	for _, b := range r.db.batches {
		if b.ClassName == className && b.StartDate.Equal(start) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, batch.ErrNotFound
}

func (r *BatchRepository) MaxNumber(_ context.Context, className string) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	highest := 0
	for _, b := range r.db.batches {
		if b.ClassName == className && b.Number > highest {
			highest = b.Number
		}
	}
	return highest, nil
}

func (r *BatchRepository) ListActive(_ context.Context) ([]*batch.Batch, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*batch.Batch, 0)
	for _, b := range r.db.batches {
		if b.Status == batch.StatusActive {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close marks a batch closed. Closing is an administrative action outside
// the scheduling cycle.
func (r *BatchRepository) Close(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b, ok := r.db.batches[id]
	if !ok {
		return batch.ErrNotFound
	}
	b.Status = batch.StatusClosed
	return nil
}
