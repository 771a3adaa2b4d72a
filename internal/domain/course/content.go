// internal/domain/course/content.go
package course

import "context"

// ContentItem is one lesson of a recurring class curriculum.
// Position is 0-based and defines rotation order.
type ContentItem struct {
	ID        int64
	ClassName string
	Position  int
	Title     string
	VideoURL  string
}

// ContentRepository reads curricula. Items are owned by the curriculum and
// never mutated here.
type ContentRepository interface {
	// ListByClass returns the class curriculum ordered by Position.
	ListByClass(ctx context.Context, className string) ([]*ContentItem, error)
}
