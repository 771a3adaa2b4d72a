// Package memstore keeps every collection in process memory. Each write is a
// check-and-insert under one lock, giving the same uniqueness guarantees as
// the Postgres constraints. Used by tests and STORE_DRIVER=memory.
package memstore

import (
	"sync"
	"time"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/course"
	"class_schedule_bot/internal/domain/enrollment"
	"class_schedule_bot/internal/domain/notification"
	"class_schedule_bot/internal/domain/session"
)

type DB struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time

	content     map[string][]*course.ContentItem
	batches     map[int64]*batch.Batch
	sessions    map[int64]*session.Session
	enrollments map[int64]*enrollment.Enrollment
	records     map[int64]*notification.Record
}

func Open() *DB {
	return &DB{
		now:         time.Now,
		content:     make(map[string][]*course.ContentItem),
		batches:     make(map[int64]*batch.Batch),
		sessions:    make(map[int64]*session.Session),
		enrollments: make(map[int64]*enrollment.Enrollment),
		records:     make(map[int64]*notification.Record),
	}
}

// id must be called with mu held for writing.
func (db *DB) id() int64 {
	db.nextID++
	return db.nextID
}
