package batch

import "time"

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Batch is one cohort run of a recurring class.
type Batch struct {
	ID           int64
	ClassName    string
	Number       int       // unique and increasing per class
	StartDate    time.Time // civil date, see package calendar
	StartWeekday time.Weekday
	Status       Status
	CreatedAt    time.Time
}
