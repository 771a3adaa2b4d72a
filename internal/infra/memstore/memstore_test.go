package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/notification"
	"class_schedule_bot/internal/domain/session"
)

func TestBatchUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewBatchRepository(Open())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := &batch.Batch{ClassName: "yoga", Number: 1, StartDate: start, Status: batch.StatusActive}
	require.NoError(t, repo.Create(ctx, first))

	tests := []struct {
		name string
		b    *batch.Batch
	}{
		{name: "same start date", b: &batch.Batch{ClassName: "yoga", Number: 2, StartDate: start, Status: batch.StatusActive}},
		{name: "same number", b: &batch.Batch{ClassName: "yoga", Number: 1, StartDate: start.AddDate(0, 0, 7), Status: batch.StatusActive}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, repo.Create(ctx, tt.b), batch.ErrDuplicate)
		})
	}

	other := &batch.Batch{ClassName: "pilates", Number: 1, StartDate: start, Status: batch.StatusActive}
	assert.NoError(t, repo.Create(ctx, other))
}

func TestConcurrentSessionCreateKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(Open())
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, &session.Session{BatchID: 1, SessionDate: day, Slot: "19:30", Status: session.StatusScheduled})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, session.ErrDuplicate)
	}
	assert.Equal(t, 1, created)
}

func TestNotificationReclaimOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(Open())

	rec := &notification.Record{SessionID: 1, Offset: notification.OffsetHalfHour, Status: notification.StatusPending, Attempts: 1}
	require.NoError(t, repo.Create(ctx, rec))

	ok, err := repo.Reclaim(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, ok, "pending record must not be reclaimed")

	rec.Status = notification.StatusFailed
	require.NoError(t, repo.Finish(ctx, rec))

	ok, err = repo.Reclaim(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reclaim(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.Get(ctx, 1, notification.OffsetHalfHour)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusPending, stored.Status)
	assert.Equal(t, 2, stored.Attempts)
}
