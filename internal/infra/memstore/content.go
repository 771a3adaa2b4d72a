package memstore

import (
	"context"
	"sort"

	"class_schedule_bot/internal/domain/course"
)

var _ course.ContentRepository = (*ContentRepository)(nil)

type ContentRepository struct {
	db *DB
}

func NewContentRepository(db *DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Seed replaces the curriculum of a class.
func (r *ContentRepository) Seed(className string, items []*course.ContentItem) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored := make([]*course.ContentItem, 0, len(items))
	for _, it := range items {
		cp := *it
		cp.ClassName = className
		if cp.ID == 0 {
			cp.ID = r.db.id()
		}
		stored = append(stored, &cp)
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].Position < stored[j].Position })
	r.db.content[className] = stored
}

func (r *ContentRepository) ListByClass(_ context.Context, className string) ([]*course.ContentItem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	items := make([]*course.ContentItem, 0, len(r.db.content[className]))
	for _, it := range r.db.content[className] {
		cp := *it
		items = append(items, &cp)
	}
	return items, nil
}
