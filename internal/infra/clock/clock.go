// Package clock provides the wall clock used by the scheduling services.
package clock

import (
	"sync"
	"time"
)

// System reads the real time and reports it in a fixed timezone.
type System struct {
	loc *time.Location
}

func NewSystem(loc *time.Location) *System {
	return &System{loc: loc}
}

func (c *System) Now() time.Time            { return time.Now().In(c.loc) }
func (c *System) Location() *time.Location { return c.loc }

// Fake is a settable clock for tests and dry runs.
type Fake struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

func NewFake(now time.Time, loc *time.Location) *Fake {
	return &Fake{now: now, loc: loc}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.In(c.loc)
}

func (c *Fake) Location() *time.Location { return c.loc }

func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
