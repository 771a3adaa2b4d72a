package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"class_schedule_bot/internal/domain/notification"
)

func newRunner(f *fixture, channels ...notification.Channel) *CycleRunner {
	return NewCycleRunner(f.catalog, f.batchService(), f.generator(30), f.reminders(ReminderSettings{}, channels...), f.clock, 30, f.logger)
}

func TestRunSchedulingCycle(t *testing.T) {
	ctx := context.Background()
	retired := yogaClass()
	retired.Name = "pottery"
	retired.Active = false
	f := newFixture(t, monday, yogaClass(), retired)
	f.content.Seed("yoga", contentItems(3))
	tg := newFakeChannel(notification.ChannelTelegram)
	runner := newRunner(f, tg)

	report := runner.RunSchedulingCycle(ctx)
	require.NoError(t, report.Err())
	assert.NotEqual(t, uuid.Nil, report.RunID)
	assert.Equal(t, 1, report.BatchesCreated)
	assert.Equal(t, 30, report.SessionsCreated)
	assert.Equal(t, 0, report.NotificationsSent)

	// 24 hours before the first session (2024-01-02 19:30).
	f.clock.Set(time.Date(2024, 1, 1, 19, 30, 0, 0, time.UTC))
	report = runner.RunSchedulingCycle(ctx)
	require.NoError(t, report.Err())
	assert.Equal(t, 0, report.BatchesCreated)
	assert.Equal(t, 0, report.SessionsCreated)
	assert.Equal(t, 1, report.NotificationsSent)

	msgs := tg.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "lesson 1")
	assert.Contains(t, msgs[0].Text, "starts tomorrow")

	// Overlapping trigger in the same window.
	report = runner.RunSchedulingCycle(ctx)
	assert.Equal(t, 0, report.NotificationsSent)
	assert.Equal(t, 1, report.DuplicatesSkipped)
}

func TestRunSchedulingCycleCollectsErrors(t *testing.T) {
	f := newFixture(t, monday, yogaClass())
	// No curriculum seeded.
	report := newRunner(f).RunSchedulingCycle(context.Background())

	assert.Equal(t, 1, report.BatchesCreated)
	assert.Equal(t, 0, report.SessionsCreated)
	require.Error(t, report.Err())
	assert.ErrorIs(t, report.Err(), ErrNoContentAvailable)
}
