package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/enrollment"
)

const adminID int64 = 1001

func newAdminService(f *fixture) *AdminService {
	bs := f.batchService()
	return NewAdminService(f.batches, f.sessions, f.enrollments, bs, newRunner(f), f.clock, adminID)
}

func TestAdminServiceRejectsOtherUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday, yogaClass())
	svc := newAdminService(f)

	_, _, err := svc.OpenBatch(ctx, 5, "yoga")
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.Enroll(ctx, 5, 7, 1, enrollment.AccessFull)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.RunCycle(ctx, 5)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.Upcoming(ctx, 5, "yoga", 5)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
}

func TestAdminServiceOpenBatchOverridesAnchorDay(t *testing.T) {
	wednesday := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, wednesday, yogaClass())
	svc := newAdminService(f)

	b, created, err := svc.OpenBatch(context.Background(), adminID, "yoga")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, time.Wednesday, b.StartWeekday)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), b.StartDate)

	_, created, err = svc.OpenBatch(context.Background(), adminID, "yoga")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAdminServiceEnroll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday, yogaClass())
	svc := newAdminService(f)
	b := f.openBatch(t, "yoga", monday)

	e, err := svc.Enroll(ctx, adminID, 7, b.ID, enrollment.AccessLimited)
	require.NoError(t, err)
	assert.Equal(t, enrollment.AccessLimited, e.AccessLevel)

	_, err = svc.Enroll(ctx, adminID, 7, b.ID, enrollment.AccessFull)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = svc.Enroll(ctx, adminID, 7, 9999, enrollment.AccessFull)
	assert.ErrorIs(t, err, batch.ErrNotFound)

	require.NoError(t, f.batches.Close(ctx, b.ID))
	_, err = svc.Enroll(ctx, adminID, 8, b.ID, enrollment.AccessFull)
	assert.ErrorIs(t, err, ErrBatchClosed)
}

func TestAdminServiceUpcoming(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday, yogaClass())
	f.content.Seed("yoga", contentItems(3))
	svc := newAdminService(f)

	report, err := svc.RunCycle(ctx, adminID)
	require.NoError(t, err)
	require.Equal(t, 30, report.SessionsCreated)

	upcoming, err := svc.Upcoming(ctx, adminID, "yoga", 3)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, 1, upcoming[0].Batch.Number)
	require.Len(t, upcoming[0].Sessions, 3)
	assert.Equal(t, 1, upcoming[0].Sessions[0].Ordinal)

	none, err := svc.Upcoming(ctx, adminID, "pilates", 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}
