package app

import (
	"fmt"

	"class_schedule_bot/internal/domain/course"
)

// CycleLength is the number of distinct items rotated through before the
// rotation repeats. A cap of 0 (or one above the list length) uses the whole list.
func CycleLength(itemCount, rotationCap int) int {
	if rotationCap <= 0 || rotationCap > itemCount {
		return itemCount
	}
	return rotationCap
}

// Resolve maps a 1-based session ordinal onto the curriculum. It is pure, so
// regenerating a day always yields the same lesson.
func Resolve(items []*course.ContentItem, ordinal, rotationCap int) (*course.ContentItem, error) {
	if len(items) == 0 {
		return nil, ErrNoContentAvailable
	}
	if ordinal < 1 {
		return nil, fmt.Errorf("ordinal must be >= 1, got %d", ordinal)
	}
	n := CycleLength(len(items), rotationCap)
	return items[(ordinal-1)%n], nil
}
