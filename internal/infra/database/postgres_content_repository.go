package database

import (
	"context"
	"database/sql"
	"fmt"

	"class_schedule_bot/internal/domain/course"
)

type PostgresContentRepository struct {
	db *sql.DB
}

func NewPostgresContentRepository(db *sql.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

func (r *PostgresContentRepository) ListByClass(ctx context.Context, className string) ([]*course.ContentItem, error) {
	query := `SELECT id, class_name, position, title, video_url
               FROM content_items WHERE class_name = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, className)
	if err != nil {
		return nil, fmt.Errorf("error listing content items: %w", err)
	}
	defer rows.Close()

	items := make([]*course.ContentItem, 0)
	for rows.Next() {
		it := &course.ContentItem{}
		if err := rows.Scan(&it.ID, &it.ClassName, &it.Position, &it.Title, &it.VideoURL); err != nil {
			return nil, fmt.Errorf("error scanning content item: %w", err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content items: %w", err)
	}
	return items, nil
}

// Seed upserts the curriculum of a class by position. Positions not listed are
// left alone so sessions that reference them keep a valid content item.
func (r *PostgresContentRepository) Seed(ctx context.Context, className string, items []*course.ContentItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting content seed: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	query := `INSERT INTO content_items (class_name, position, title, video_url)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (class_name, position) DO UPDATE
               SET title = EXCLUDED.title, video_url = EXCLUDED.video_url
               RETURNING id`
	for _, it := range items {
		if err := tx.QueryRowContext(ctx, query, className, it.Position, it.Title, it.VideoURL).Scan(&it.ID); err != nil {
			return fmt.Errorf("error seeding content item %d of %s: %w", it.Position, className, err)
		}
		it.ClassName = className
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing content seed: %w", err)
	}
	return nil
}
