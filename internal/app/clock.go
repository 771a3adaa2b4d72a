package app

import "time"

// Clock supplies the current instant and the canonical timezone all
// calendar arithmetic is done in.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// today returns the current civil date in the clock's timezone, plus the
// current instant expressed in that timezone.
func today(c Clock) (time.Time, time.Time) {
	now := c.Now().In(c.Location())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), now
}
