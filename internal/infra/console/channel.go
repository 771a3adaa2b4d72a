// Package console provides a channel that writes reminders to the log.
package console

import (
	"context"

	"class_schedule_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

type Channel struct {
	logger *logrus.Entry
}

var _ notification.Channel = (*Channel)(nil)

func NewChannel(logger *logrus.Entry) *Channel {
	return &Channel{logger: logger.WithField("channel", string(notification.ChannelLog))}
}

func (ch *Channel) Kind() notification.ChannelKind { return notification.ChannelLog }

func (ch *Channel) Send(ctx context.Context, address, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ch.logger.WithField("address", address).Info(text)
	return nil
}
