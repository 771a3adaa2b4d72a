package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"class_schedule_bot/internal/app"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls       atomic.Int32
	hadDeadline atomic.Bool
	cancellable atomic.Bool
	err         error
}

func (r *countingRunner) RunSchedulingCycle(ctx context.Context) *app.CycleReport {
	r.calls.Add(1)
	_, ok := ctx.Deadline()
	r.hadDeadline.Store(ok)
	r.cancellable.Store(ctx.Done() != nil)
	report := &app.CycleReport{RunID: uuid.New()}
	if r.err != nil {
		report.Errors = append(report.Errors, r.err)
	}
	return report
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestTickRunsCycleWithoutDeadline(t *testing.T) {
	runner := &countingRunner{err: errors.New("store unavailable")}
	s := NewCycleScheduler(runner, time.UTC, 5*time.Minute, quietLogger())

	s.tick()

	assert.EqualValues(t, 1, runner.calls.Load())
	assert.False(t, runner.hadDeadline.Load())
	assert.False(t, runner.cancellable.Load())
}

func TestStartRegistersOneJob(t *testing.T) {
	runner := &countingRunner{}
	s := NewCycleScheduler(runner, time.UTC, time.Hour, quietLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	entries := s.cronEngine.Entries()
	require.Len(t, entries, 1)
	assert.WithinDuration(t, time.Now().Add(time.Hour), entries[0].Next, time.Minute)
}
