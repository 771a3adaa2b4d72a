package console

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelLogsReminder(t *testing.T) {
	l, hook := test.NewNullLogger()
	ch := NewChannel(logrus.NewEntry(l))

	require.NoError(t, ch.Send(context.Background(), "ops", "Reminder: yoga"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Reminder: yoga", entry.Message)
	assert.Equal(t, "ops", entry.Data["address"])
	assert.Equal(t, "log", entry.Data["channel"])
}

func TestChannelHonorsCancelledContext(t *testing.T) {
	l, hook := test.NewNullLogger()
	ch := NewChannel(logrus.NewEntry(l))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ch.Send(ctx, "ops", "Reminder"), context.Canceled)
	assert.Empty(t, hook.AllEntries())
}
