// internal/domain/notification/shared_types.go
package notification

import (
	"fmt"
	"time"
)

// Offset is a reminder kind: how long before session start it fires.
// The set is closed; adding one means extending every switch below.
type Offset int

const (
	OffsetDayBefore Offset = iota + 1
	OffsetThreeHours
	OffsetHalfHour
)

// AllOffsets lists every reminder kind, longest first.
var AllOffsets = []Offset{OffsetDayBefore, OffsetThreeHours, OffsetHalfHour}

// Duration is the time between the reminder and session start.
func (o Offset) Duration() time.Duration {
	switch o {
	case OffsetDayBefore:
		return 24 * time.Hour
	case OffsetThreeHours:
		return 3 * time.Hour
	case OffsetHalfHour:
		return 30 * time.Minute
	}
	panic(fmt.Sprintf("notification: unknown offset %d", int(o)))
}

func (o Offset) String() string {
	switch o {
	case OffsetDayBefore:
		return "24h"
	case OffsetThreeHours:
		return "3h"
	case OffsetHalfHour:
		return "30m"
	}
	return fmt.Sprintf("Offset(%d)", int(o))
}

// ParseOffset maps "24h", "3h" or "30m" to its kind.
func ParseOffset(s string) (Offset, error) {
	for _, o := range AllOffsets {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown reminder offset %q", s)
}

// ChannelKind names a delivery channel.
type ChannelKind string

const (
	ChannelTelegram ChannelKind = "telegram"
	ChannelEmail    ChannelKind = "email"
	ChannelLog      ChannelKind = "log"
)

// ParseChannelKind validates a configured channel name.
func ParseChannelKind(s string) (ChannelKind, error) {
	switch ChannelKind(s) {
	case ChannelTelegram, ChannelEmail, ChannelLog:
		return ChannelKind(s), nil
	default:
		return "", fmt.Errorf("unknown channel %q", s)
	}
}

// Target is one recipient on one channel.
type Target struct {
	Channel ChannelKind
	Address string
}

func (t Target) String() string {
	return string(t.Channel) + ":" + t.Address
}
