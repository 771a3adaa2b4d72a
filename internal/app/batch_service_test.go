package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"class_schedule_bot/internal/domain/batch"
)

var monday = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func TestEnsureBatchForClassOnAnchorDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday, yogaClass())
	svc := f.batchService()

	b, created, err := svc.EnsureBatchForClass(ctx, "yoga", monday, false)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, 1, b.Number)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), b.StartDate)
	assert.Equal(t, time.Monday, b.StartWeekday)
	assert.Equal(t, batch.StatusActive, b.Status)

	again, created, err := svc.EnsureBatchForClass(ctx, "yoga", monday.Add(3*time.Hour), false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, b.ID, again.ID)

	nextWeek, created, err := svc.EnsureBatchForClass(ctx, "yoga", monday.AddDate(0, 0, 7), false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, nextWeek.Number)
}

func TestEnsureBatchForClassOffAnchorDay(t *testing.T) {
	ctx := context.Background()
	tuesday := monday.AddDate(0, 0, 1)
	f := newFixture(t, tuesday, yogaClass())
	svc := f.batchService()

	b, created, err := svc.EnsureBatchForClass(ctx, "yoga", tuesday, false)
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.False(t, created)

	b, created, err = svc.EnsureBatchForClass(ctx, "yoga", tuesday, true)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, time.Tuesday, b.StartWeekday)
}

func TestEnsureBatchForClassConfigurationMissing(t *testing.T) {
	inactive := yogaClass()
	inactive.Name = "pottery"
	inactive.Active = false
	f := newFixture(t, monday, yogaClass(), inactive)
	svc := f.batchService()

	for _, name := range []string{"pottery", "unknown"} {
		_, _, err := svc.EnsureBatchForClass(context.Background(), name, monday, false)
		assert.ErrorIs(t, err, ErrConfigurationMissing, name)
	}
}

func TestEnsureBatchForClassConcurrentCallsCreateOneBatch(t *testing.T) {
	f := newFixture(t, monday, yogaClass())
	svc := f.batchService()

	const callers = 8
	var wg sync.WaitGroup
	ids := make([]int64, callers)
	createdFlags := make([]bool, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, created, err := svc.EnsureBatchForClass(context.Background(), "yoga", monday, false)
			errs[i] = err
			createdFlags[i] = created
			if b != nil {
				ids[i] = b.ID
			}
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
		if createdFlags[i] {
			created++
		}
	}
	assert.Equal(t, 1, created)

	active, err := f.batches.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
