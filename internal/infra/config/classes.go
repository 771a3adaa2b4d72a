package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"class_schedule_bot/internal/domain/course"
	"class_schedule_bot/internal/domain/notification"

	"gopkg.in/yaml.v3"
)

const defaultFreeThreshold = 2

// classesFile models the CLASSES_FILE document.
type classesFile struct {
	Classes []classEntry `yaml:"classes" validate:"min=1,dive"`
}

type classEntry struct {
	Name          string        `yaml:"name" validate:"notblank"`
	Active        *bool         `yaml:"active"`
	AnchorWeekday string        `yaml:"anchor_weekday" validate:"required"`
	RotationCap   int           `yaml:"rotation_cap" validate:"min=0"`
	FreeThreshold *int          `yaml:"free_threshold" validate:"omitempty,min=0"`
	Slots         []string      `yaml:"slots" validate:"min=1,dive,notblank"`
	Targets       []targetEntry `yaml:"targets" validate:"dive"`
	Content       []contentItem `yaml:"content" validate:"dive"`
}

type targetEntry struct {
	Channel string `yaml:"channel" validate:"oneof=telegram email log"`
	Address string `yaml:"address" validate:"notblank"`
}

type contentItem struct {
	Title    string `yaml:"title" validate:"notblank"`
	VideoURL string `yaml:"video_url" validate:"omitempty,url"`
}

// Classes is the parsed class configuration plus any seed curriculum.
type Classes struct {
	Catalog course.Catalog
	// Content holds the optional curriculum per class, positions assigned
	// in file order starting at 0.
	Content map[string][]*course.ContentItem
}

// LoadClasses reads and validates the YAML class configuration at path.
func LoadClasses(path string) (*Classes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classes file: %w", err)
	}
	return ParseClasses(raw)
}

// ParseClasses is LoadClasses for an in-memory document.
func ParseClasses(raw []byte) (*Classes, error) {
	var doc classesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse classes file: %w", err)
	}
	if err := validateStruct(doc); err != nil {
		return nil, err
	}

	out := &Classes{
		Catalog: make(course.Catalog, len(doc.Classes)),
		Content: make(map[string][]*course.ContentItem),
	}
	for _, entry := range doc.Classes {
		cls, err := entry.toClass()
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", entry.Name, err)
		}
		out.Catalog[cls.Name] = cls

		if len(entry.Content) == 0 {
			continue
		}
		items := make([]*course.ContentItem, 0, len(entry.Content))
		for i, c := range entry.Content {
			items = append(items, &course.ContentItem{
				ClassName: cls.Name,
				Position:  i,
				Title:     c.Title,
				VideoURL:  c.VideoURL,
			})
		}
		out.Content[cls.Name] = items
	}
	return out, nil
}

func (e classEntry) toClass() (*course.Class, error) {
	weekday, err := parseWeekday(e.AnchorWeekday)
	if err != nil {
		return nil, err
	}

	cls := &course.Class{
		Name:          strings.TrimSpace(e.Name),
		Active:        e.Active == nil || *e.Active,
		AnchorWeekday: weekday,
		RotationCap:   e.RotationCap,
		FreeThreshold: defaultFreeThreshold,
	}
	if e.FreeThreshold != nil {
		cls.FreeThreshold = *e.FreeThreshold
	}

	seenSlots := make(map[course.Slot]bool, len(e.Slots))
	for _, raw := range e.Slots {
		slot, err := course.ParseSlot(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		if seenSlots[slot] {
			return nil, fmt.Errorf("slot %s listed twice", slot)
		}
		seenSlots[slot] = true
		cls.Slots = append(cls.Slots, slot)
	}

	for _, t := range e.Targets {
		kind, err := notification.ParseChannelKind(t.Channel)
		if err != nil {
			return nil, err
		}
		cls.Targets = append(cls.Targets, notification.Target{Channel: kind, Address: strings.TrimSpace(t.Address)})
	}
	return cls, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown anchor weekday %q", s)
}
