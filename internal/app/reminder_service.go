package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/course"
	"class_schedule_bot/internal/domain/notification"
	"class_schedule_bot/internal/domain/session"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ReminderState is where one (session, offset) pair is in its lifecycle.
type ReminderState int

const (
	StateNotDue ReminderState = iota
	StateDue
	StateDispatching
	StateSent
	StateFailed
)

func (s ReminderState) String() string {
	switch s {
	case StateNotDue:
		return "NOT_DUE"
	case StateDue:
		return "DUE"
	case StateDispatching:
		return "DISPATCHING"
	case StateSent:
		return "SENT"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("ReminderState(%d)", int(s))
}

// stateOf maps a stored record status onto the lifecycle.
func stateOf(status notification.Status) ReminderState {
	switch status {
	case notification.StatusPending:
		return StateDispatching
	case notification.StatusSent:
		return StateSent
	case notification.StatusFailed:
		return StateFailed
	}
	return StateNotDue
}

// ReminderSettings configure the timing engine.
type ReminderSettings struct {
	Offsets []notification.Offset
	// Tolerance is the half-width of the window around each target time. It
	// must be at least the gap between trigger invocations.
	Tolerance      time.Duration
	ChannelTimeout time.Duration
	RetryFailed    bool
	MaxParallel    int
}

// DueState reports whether the offset of s is inside its window at now.
func DueState(s *session.Session, offset notification.Offset, now time.Time, tolerance time.Duration) ReminderState {
	target := s.ScheduledAt.Add(-offset.Duration())
	if now.Before(target.Add(-tolerance)) || now.After(target.Add(tolerance)) {
		return StateNotDue
	}
	return StateDue
}

// DispatchReport aggregates one DispatchDueReminders run.
type DispatchReport struct {
	Sent              int
	Failed            int
	DuplicatesSkipped int
	Errors            []error
}

var errChannelNotConfigured = errors.New("channel not configured")

type dispatchOutcome int

const (
	outcomeSkipped dispatchOutcome = iota
	outcomeSent
	outcomeFailed
)

// ReminderService fires reminders at each configured offset before a session,
// at most once per (session, offset).
type ReminderService struct {
	catalog  course.Catalog
	batches  batch.Repository
	sessions session.Repository
	records  notification.Repository
	channels map[notification.ChannelKind]notification.Channel
	clock    Clock
	settings ReminderSettings
	logger   *logrus.Entry
}

func NewReminderService(
	catalog course.Catalog,
	br batch.Repository,
	sr session.Repository,
	nr notification.Repository,
	clock Clock,
	settings ReminderSettings,
	logger *logrus.Entry,
	channels ...notification.Channel,
) *ReminderService {
	if settings.MaxParallel < 1 {
		settings.MaxParallel = 1
	}
	byKind := make(map[notification.ChannelKind]notification.Channel, len(channels))
	for _, ch := range channels {
		byKind[ch.Kind()] = ch
	}
	return &ReminderService{
		catalog:  catalog,
		batches:  br,
		sessions: sr,
		records:  nr,
		channels: byKind,
		clock:    clock,
		settings: settings,
		logger:   logger.WithField("component", "reminders"),
	}
}

// DispatchDueReminders scans sessions whose offsets may be due and sends each
// due reminder once. Windows missed entirely are not backfilled. A claimed
// reminder is always finished, so cancellation of ctx is ignored and only
// ChannelTimeout bounds a channel call.
func (s *ReminderService) DispatchDueReminders(ctx context.Context) *DispatchReport {
	ctx = context.WithoutCancel(ctx)
	report := &DispatchReport{}
	if len(s.settings.Offsets) == 0 {
		return report
	}

	now := s.clock.Now()
	shortest, longest := s.settings.Offsets[0].Duration(), s.settings.Offsets[0].Duration()
	for _, o := range s.settings.Offsets[1:] {
		if d := o.Duration(); d < shortest {
			shortest = d
		} else if d > longest {
			longest = d
		}
	}

	from := now.Add(shortest - s.settings.Tolerance)
	to := now.Add(longest + s.settings.Tolerance)
	candidates, err := s.sessions.ListScheduledBetween(ctx, from, to)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("failed to list sessions for reminders: %w", err))
		return report
	}

	var mu sync.Mutex
	group := new(errgroup.Group)
	group.SetLimit(s.settings.MaxParallel)

	for _, sess := range candidates {
		sess := sess
		for _, offset := range s.settings.Offsets {
			if DueState(sess, offset, now, s.settings.Tolerance) != StateDue {
				continue
			}
			offset := offset
			group.Go(func() error {
				outcome, err := s.dispatch(ctx, sess, offset)
				mu.Lock()
				defer mu.Unlock()
				switch outcome {
				case outcomeSent:
					report.Sent++
				case outcomeFailed:
					report.Failed++
				case outcomeSkipped:
					if err == nil {
						report.DuplicatesSkipped++
					}
				}
				if err != nil {
					report.Errors = append(report.Errors, err)
				}
				return nil
			})
		}
	}
	_ = group.Wait()

	return report
}

// dispatch runs DUE -> DISPATCHING -> SENT|FAILED for one pair. The claim is
// the store's unique (session, offset) insert; whoever loses it skips.
func (s *ReminderService) dispatch(ctx context.Context, sess *session.Session, offset notification.Offset) (dispatchOutcome, error) {
	log := s.logger.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"class":      sess.ClassName,
		"offset":     offset.String(),
	})

	cls, ok := s.catalog.Lookup(sess.ClassName)
	if !ok {
		log.Warn("Session class has no configuration, reminder skipped")
		return outcomeSkipped, fmt.Errorf("session %d: %w: %s", sess.ID, ErrConfigurationMissing, sess.ClassName)
	}
	if len(cls.Targets) == 0 {
		log.Warn("Class has no reminder targets, reminder skipped")
		return outcomeSkipped, fmt.Errorf("session %d: %w", sess.ID, ErrNoTargets)
	}
	b, err := s.batches.GetByID(ctx, sess.BatchID)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("session %d: failed to load batch %d: %w", sess.ID, sess.BatchID, err)
	}

	rec, claimed, err := s.claim(ctx, sess.ID, offset)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("session %d offset %s: failed to claim reminder: %w", sess.ID, offset, err)
	}
	if !claimed {
		log.WithField("state", stateOf(rec.Status).String()).Debug("Reminder already handled, duplicate skipped")
		return outcomeSkipped, nil
	}

	text := renderReminder(cls, b, sess, offset, s.clock.Location())
	outcomes, failures := s.fanOut(ctx, cls.Targets, text)

	rec.Outcomes = outcomes
	if len(failures) < len(outcomes) {
		rec.Status = notification.StatusSent
		rec.SentAt = sql.NullTime{Time: s.clock.Now(), Valid: true}
		if len(failures) > 0 {
			rec.ErrorDetail = sql.NullString{String: joinErrors(targetErrors(failures)).Error(), Valid: true}
		}
	} else {
		rec.Status = notification.StatusFailed
	}

	var dispatchErr error
	if rec.Status == notification.StatusFailed {
		failure := &DispatchFailure{SessionID: sess.ID, Offset: offset, Targets: failures}
		rec.ErrorDetail = sql.NullString{String: failure.Error(), Valid: true}
		dispatchErr = failure
	}

	if err := s.records.Finish(ctx, rec); err != nil {
		log.WithError(err).Error("Failed to store reminder outcome")
		dispatchErr = errors.Join(dispatchErr, fmt.Errorf("session %d offset %s: failed to store outcome: %w", sess.ID, offset, err))
	}

	if rec.Status == notification.StatusSent {
		log.WithFields(logrus.Fields{
			"targets": len(outcomes),
			"failed":  len(failures),
		}).Info("Reminder sent")
		return outcomeSent, dispatchErr
	}
	log.WithError(dispatchErr).Error("Reminder failed on every target")
	return outcomeFailed, dispatchErr
}

// claim creates the pending record for the pair. A failed record is taken
// over only when retries are enabled, none of its targets timed out, and only
// by one invocation.
func (s *ReminderService) claim(ctx context.Context, sessionID int64, offset notification.Offset) (*notification.Record, bool, error) {
	rec := &notification.Record{
		SessionID: sessionID,
		Offset:    offset,
		Status:    notification.StatusPending,
		Attempts:  1,
	}
	err := s.records.Create(ctx, rec)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, notification.ErrDuplicateRecord) {
		return nil, false, err
	}

	existing, err := s.records.Get(ctx, sessionID, offset)
	if err != nil {
		return nil, false, err
	}
	if existing.Status != notification.StatusFailed || !s.settings.RetryFailed {
		return existing, false, nil
	}
	// An abandoned call may have landed after its timeout.
	if existing.MayHaveDelivered() {
		s.logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"offset":     offset.String(),
		}).Warn("Failed reminder timed out on a target, not retried")
		return existing, false, nil
	}

	ok, err := s.records.Reclaim(ctx, existing.ID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return existing, false, nil
	}
	existing.Status = notification.StatusPending
	existing.Attempts++
	existing.ErrorDetail = sql.NullString{}
	return existing, true, nil
}

// fanOut sends text to every target concurrently. Each call has its own
// timeout; it returns once all calls have finished or timed out.
func (s *ReminderService) fanOut(ctx context.Context, targets []notification.Target, text string) ([]notification.Outcome, []*ChannelDispatchError) {
	outcomes := make([]notification.Outcome, len(targets))
	errs := make([]error, len(targets))
	var group errgroup.Group

	for i, target := range targets {
		i, target := i, target
		group.Go(func() error {
			ch, ok := s.channels[target.Channel]
			if !ok {
				errs[i] = errChannelNotConfigured
				return nil
			}

			callCtx, cancel := context.WithTimeout(ctx, s.settings.ChannelTimeout)
			defer cancel()
			errs[i] = ch.Send(callCtx, target.Address, text)
			return nil
		})
	}
	_ = group.Wait()

	var failures []*ChannelDispatchError
	for i, target := range targets {
		outcomes[i] = notification.Outcome{Channel: target.Channel, Address: target.Address, Success: errs[i] == nil}
		if errs[i] != nil {
			outcomes[i].Error = errs[i].Error()
			outcomes[i].TimedOut = errors.Is(errs[i], context.DeadlineExceeded)
			failures = append(failures, &ChannelDispatchError{Target: target, Err: errs[i]})
		}
	}
	return outcomes, failures
}

func targetErrors(failures []*ChannelDispatchError) []error {
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, f)
	}
	return errs
}

func renderReminder(cls *course.Class, b *batch.Batch, sess *session.Session, offset notification.Offset, loc *time.Location) string {
	startsAt := sess.ScheduledAt.In(loc).Format("Mon 02 Jan 15:04 MST")
	header := fmt.Sprintf("%s, batch #%d, lesson %d: %s", cls.Name, b.Number, sess.Ordinal, sess.ContentTitle)

	var when string
	switch offset {
	case notification.OffsetDayBefore:
		when = "starts tomorrow, " + startsAt
	case notification.OffsetThreeHours:
		when = "starts in 3 hours, " + startsAt
	case notification.OffsetHalfHour:
		when = "starts in 30 minutes. Get ready!"
	default:
		panic(fmt.Sprintf("renderReminder: unhandled offset %s", offset))
	}

	var sb strings.Builder
	sb.WriteString("Reminder: ")
	sb.WriteString(header)
	sb.WriteString(" ")
	sb.WriteString(when)
	if sess.IsFree {
		sb.WriteString(" (free preview)")
	}
	return sb.String()
}
