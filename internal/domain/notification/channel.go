package notification

import "context"

// Channel delivers reminder text to an address. Implementations must honour
// ctx cancellation so a per-call timeout bounds them.
type Channel interface {
	Kind() ChannelKind
	Send(ctx context.Context, address, text string) error
}
