package main

import (
	"context"
	"fmt"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/course"
	"class_schedule_bot/internal/domain/enrollment"
	"class_schedule_bot/internal/domain/notification"
	"class_schedule_bot/internal/domain/session"
	"class_schedule_bot/internal/infra/config"
	idb "class_schedule_bot/internal/infra/database"
	"class_schedule_bot/internal/infra/memstore"

	"github.com/sirupsen/logrus"
)

// store bundles the repositories of one backing store.
type store struct {
	batches     batch.Repository
	sessions    session.Repository
	content     course.ContentRepository
	enrollments enrollment.Repository
	records     notification.Repository
	close       func() error
}

func openStore(ctx context.Context, cfg *config.AppConfig, classes *config.Classes, log *logrus.Entry) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		db := memstore.Open()
		content := memstore.NewContentRepository(db)
		for name, items := range classes.Content {
			content.Seed(name, items)
		}
		log.WithField("classes_seeded", len(classes.Content)).Warn("Using the in-memory store, state is lost on exit")
		return &store{
			batches:     memstore.NewBatchRepository(db),
			sessions:    memstore.NewSessionRepository(db),
			content:     content,
			enrollments: memstore.NewEnrollmentRepository(db),
			records:     memstore.NewNotificationRepository(db),
			close:       func() error { return nil },
		}, nil

	case config.StoreDriverPostgres:
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := idb.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		content := idb.NewPostgresContentRepository(db)
		for name, items := range classes.Content {
			if err := content.Seed(ctx, name, items); err != nil {
				db.Close()
				return nil, err
			}
		}
		log.WithField("classes_seeded", len(classes.Content)).Info("Database connection established and schema applied")
		return &store{
			batches:     idb.NewPostgresBatchRepository(db),
			sessions:    idb.NewPostgresSessionRepository(db),
			content:     content,
			enrollments: idb.NewPostgresEnrollmentRepository(db),
			records:     idb.NewPostgresNotificationRepository(db),
			close:       db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
