// internal/domain/course/class.go
package course

import (
	"fmt"
	"sort"
	"time"

	"class_schedule_bot/internal/domain/notification"
)

// Class is the configuration of one recurring class.
type Class struct {
	Name          string
	Active        bool
	AnchorWeekday time.Weekday // a new batch opens on this weekday
	RotationCap   int          // 0 rotates through the whole curriculum
	FreeThreshold int          // content positions below this are free previews
	Slots         []Slot
	Targets       []notification.Target
}

// Slot is a fixed local time of day at which a session runs.
type Slot struct {
	Hour   int
	Minute int
}

// ParseSlot reads "HH:MM".
func ParseSlot(s string) (Slot, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Slot{}, fmt.Errorf("invalid slot %q: %w", s, err)
	}
	return Slot{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// Catalog indexes class configuration by class name.
type Catalog map[string]*Class

// Lookup returns the class and whether it is configured.
func (c Catalog) Lookup(name string) (*Class, bool) {
	cls, ok := c[name]
	return cls, ok
}

// Names returns the configured class names in a stable order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
