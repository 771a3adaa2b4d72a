package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"class_schedule_bot/internal/domain/notification"
	domaintelegram "class_schedule_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// Channel delivers reminders to Telegram chats. The target address is the
// numeric chat id.
type Channel struct {
	client domaintelegram.Client
}

var _ notification.Channel = (*Channel)(nil)

func NewChannel(client domaintelegram.Client) *Channel {
	return &Channel{client: client}
}

func (ch *Channel) Kind() notification.ChannelKind { return notification.ChannelTelegram }

// Send returns when the message is accepted or ctx is done. telebot has no
// context support, so a call abandoned on timeout may still complete later.
func (ch *Channel) Send(ctx context.Context, address, text string) error {
	chatID, err := strconv.ParseInt(strings.TrimSpace(address), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", address, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- ch.client.SendMessage(chatID, text, &telebot.SendOptions{DisableWebPagePreview: true})
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send to %d: %w", chatID, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram send to %d: %w", chatID, ctx.Err())
	}
}
