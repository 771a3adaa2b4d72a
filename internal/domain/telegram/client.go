package telegram

import "gopkg.in/telebot.v3"

// Client sends messages through a Telegram bot. Chat ids may be users,
// groups or channels.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
