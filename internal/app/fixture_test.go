package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/course"
	"class_schedule_bot/internal/domain/notification"
	"class_schedule_bot/internal/domain/session"
	"class_schedule_bot/internal/infra/clock"
	"class_schedule_bot/internal/infra/memstore"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func yogaClass() *course.Class {
	return &course.Class{
		Name:          "yoga",
		Active:        true,
		AnchorWeekday: time.Monday,
		RotationCap:   5,
		FreeThreshold: 2,
		Slots:         []course.Slot{{Hour: 19, Minute: 30}},
		Targets:       []notification.Target{{Channel: notification.ChannelTelegram, Address: "100"}},
	}
}

type fixture struct {
	batches     *memstore.BatchRepository
	sessions    *memstore.SessionRepository
	content     *memstore.ContentRepository
	enrollments *memstore.EnrollmentRepository
	records     *memstore.NotificationRepository
	clock       *clock.Fake
	catalog     course.Catalog
	logger      *logrus.Entry
}

func newFixture(t *testing.T, now time.Time, classes ...*course.Class) *fixture {
	t.Helper()
	db := memstore.Open()
	catalog := make(course.Catalog, len(classes))
	for _, c := range classes {
		catalog[c.Name] = c
	}
	return &fixture{
		batches:     memstore.NewBatchRepository(db),
		sessions:    memstore.NewSessionRepository(db),
		content:     memstore.NewContentRepository(db),
		enrollments: memstore.NewEnrollmentRepository(db),
		records:     memstore.NewNotificationRepository(db),
		clock:       clock.NewFake(now, now.Location()),
		catalog:     catalog,
		logger:      quietLogger(),
	}
}

func (f *fixture) batchService() *BatchService {
	return NewBatchService(f.catalog, f.batches, f.logger)
}

func (f *fixture) generator(horizonDays int) *SessionGenerator {
	return NewSessionGenerator(f.catalog, f.batches, f.sessions, f.content, f.clock,
		GeneratorSettings{HorizonDays: horizonDays, MaxParallel: 4}, f.logger)
}

func (f *fixture) reminders(settings ReminderSettings, channels ...notification.Channel) *ReminderService {
	if settings.Offsets == nil {
		settings.Offsets = notification.AllOffsets
	}
	if settings.Tolerance == 0 {
		settings.Tolerance = 5 * time.Minute
	}
	if settings.ChannelTimeout == 0 {
		settings.ChannelTimeout = time.Second
	}
	if settings.MaxParallel == 0 {
		settings.MaxParallel = 4
	}
	return NewReminderService(f.catalog, f.batches, f.sessions, f.records, f.clock, settings, f.logger, channels...)
}

func (f *fixture) openBatch(t *testing.T, className string, start time.Time) *batch.Batch {
	t.Helper()
	number, err := f.batches.MaxNumber(context.Background(), className)
	require.NoError(t, err)
	b := &batch.Batch{
		ClassName:    className,
		Number:       number + 1,
		StartDate:    start,
		StartWeekday: start.Weekday(),
		Status:       batch.StatusActive,
	}
	require.NoError(t, f.batches.Create(context.Background(), b))
	return b
}

func (f *fixture) addSession(t *testing.T, b *batch.Batch, ordinal int, at time.Time, position int) *session.Session {
	t.Helper()
	s := &session.Session{
		BatchID:         b.ID,
		ClassName:       b.ClassName,
		Ordinal:         ordinal,
		ContentItemID:   int64(position + 1),
		ContentPosition: position,
		ContentTitle:    fmt.Sprintf("Lesson %d", position+1),
		SessionDate:     at,
		Slot:            at.Format("15:04"),
		ScheduledAt:     at,
		Status:          session.StatusScheduled,
		IsFree:          position < 2,
	}
	require.NoError(t, f.sessions.Create(context.Background(), s))
	return s
}

type sentMessage struct {
	Address string
	Text    string
}

// fakeChannel records messages; it can be told to fail or to hang until the
// call context ends.
type fakeChannel struct {
	kind notification.ChannelKind

	mu    sync.Mutex
	sent  []sentMessage
	fail  error
	block bool
}

func newFakeChannel(kind notification.ChannelKind) *fakeChannel {
	return &fakeChannel{kind: kind}
}

func (c *fakeChannel) Kind() notification.ChannelKind { return c.kind }

func (c *fakeChannel) Send(ctx context.Context, address, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	block, fail := c.block, c.fail
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail != nil {
		return fail
	}
	c.mu.Lock()
	c.sent = append(c.sent, sentMessage{Address: address, Text: text})
	c.mu.Unlock()
	return nil
}

func (c *fakeChannel) setFail(err error) {
	c.mu.Lock()
	c.fail = err
	c.mu.Unlock()
}

func (c *fakeChannel) setBlock(block bool) {
	c.mu.Lock()
	c.block = block
	c.mu.Unlock()
}

func (c *fakeChannel) messages() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMessage(nil), c.sent...)
}

var errChannelDown = errors.New("channel down")
