package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"class_schedule_bot/internal/app"
	"class_schedule_bot/internal/domain/batch"
	"class_schedule_bot/internal/domain/enrollment"
	"class_schedule_bot/internal/domain/session"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	msgUnauthorized  = "Error: you are not allowed to run this command."
	upcomingPerBatch = 5
)

type adminHandlers struct {
	ctx             context.Context
	adminService    *app.AdminService
	sessionService  *app.SessionService
	adminTelegramID int64
	logger          *logrus.Entry
}

// RegisterAdminHandlers registers handlers for admin commands.
func RegisterAdminHandlers(
	ctx context.Context,
	b *telebot.Bot,
	adminService *app.AdminService,
	sessionService *app.SessionService,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	h := &adminHandlers{
		ctx:             ctx,
		adminService:    adminService,
		sessionService:  sessionService,
		adminTelegramID: adminTelegramID,
		logger:          baseLogger,
	}
	b.Handle("/run_cycle", h.runCycle)
	b.Handle("/new_batch", h.newBatch)
	b.Handle("/enroll", h.enroll)
	b.Handle("/upcoming", h.upcoming)
	b.Handle("/start_session", h.startSession)
	b.Handle("/complete_session", h.completeSession)
}

// authorize logs the command and reports whether the sender is the admin.
func (h *adminHandlers) authorize(c telebot.Context, command string) (*logrus.Entry, bool) {
	handlerLogger := h.logger.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": c.Sender().ID,
	})
	handlerLogger.Info("Command received")
	if c.Sender().ID != h.adminTelegramID {
		handlerLogger.Warn("Unauthorized access attempt")
		return handlerLogger, false
	}
	return handlerLogger, true
}

func (h *adminHandlers) runCycle(c telebot.Context) error {
	handlerLogger, ok := h.authorize(c, "/run_cycle")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	report, err := h.adminService.RunCycle(context.Background(), c.Sender().ID)
	if err != nil {
		handlerLogger.WithError(err).Warn("Cycle refused")
		return c.Send(msgUnauthorized)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Cycle %s finished.\n", report.RunID)
	fmt.Fprintf(&sb, "Batches created: %d\n", report.BatchesCreated)
	fmt.Fprintf(&sb, "Sessions created: %d\n", report.SessionsCreated)
	fmt.Fprintf(&sb, "Duplicates skipped: %d\n", report.DuplicatesSkipped)
	fmt.Fprintf(&sb, "Reminders sent: %d, failed: %d\n", report.NotificationsSent, report.NotificationsFailed)
	if len(report.Errors) > 0 {
		fmt.Fprintf(&sb, "Errors: %d (see logs)", len(report.Errors))
	}
	return c.Send(sb.String())
}

func (h *adminHandlers) newBatch(c telebot.Context) error {
	handlerLogger, ok := h.authorize(c, "/new_batch")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	args := c.Args()
	// Expected format: /new_batch <class>
	if len(args) != 1 {
		return c.Send("Invalid format. Use: /new_batch <class>")
	}
	className := args[0]
	handlerLogger = handlerLogger.WithField("class", className)

	b, created, err := h.adminService.OpenBatch(h.ctx, c.Sender().ID, className)
	if err != nil {
		logWithError := handlerLogger.WithError(err)
		switch {
		case errors.Is(err, app.ErrConfigurationMissing):
			logWithError.Warn("Unknown or inactive class")
			return c.Send(fmt.Sprintf("Class %q is not configured or not active.", className))
		default:
			logWithError.Error("Failed to open batch")
			return c.Send(fmt.Sprintf("Failed to open a batch: %s", err.Error()))
		}
	}

	handlerLogger.WithFields(logrus.Fields{
		"batch_id": b.ID,
		"created":  created,
	}).Info("Manual batch request handled")
	if !created {
		return c.Send(fmt.Sprintf("%s already has batch #%d (ID %d) starting %s.", b.ClassName, b.Number, b.ID, b.StartDate.Format("2006-01-02")))
	}
	return c.Send(fmt.Sprintf("Opened %s batch #%d (ID %d) starting %s.", b.ClassName, b.Number, b.ID, b.StartDate.Format("2006-01-02")))
}

func (h *adminHandlers) enroll(c telebot.Context) error {
	handlerLogger, ok := h.authorize(c, "/enroll")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	args := c.Args()
	// Expected format: /enroll <user_id> <batch_id> [limited|full]
	if len(args) < 2 || len(args) > 3 {
		return c.Send("Invalid format. Use: /enroll <user_id> <batch_id> [limited|full]")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Error: user ID must be a number.")
	}
	batchID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return c.Send("Error: batch ID must be a number.")
	}
	level := enrollment.AccessFull
	if len(args) == 3 {
		level, err = enrollment.ParseAccessLevel(strings.ToLower(args[2]))
		if err != nil {
			return c.Send("Error: access level must be 'limited' or 'full'.")
		}
	}
	handlerLogger = handlerLogger.WithFields(logrus.Fields{
		"user_id":  userID,
		"batch_id": batchID,
		"access":   level,
	})

	e, err := h.adminService.Enroll(h.ctx, c.Sender().ID, userID, batchID, level)
	if err != nil {
		logWithError := handlerLogger.WithError(err)
		switch {
		case errors.Is(err, batch.ErrNotFound):
			logWithError.Warn("Batch not found")
			return c.Send(fmt.Sprintf("Batch %d not found.", batchID))
		case errors.Is(err, app.ErrBatchClosed):
			logWithError.Warn("Batch closed")
			return c.Send(fmt.Sprintf("Batch %d is closed.", batchID))
		case errors.Is(err, app.ErrAlreadyEnrolled):
			logWithError.Warn("User already enrolled")
			return c.Send(fmt.Sprintf("User %d is already enrolled in batch %d.", userID, batchID))
		default:
			logWithError.Error("Failed to enroll user")
			return c.Send(fmt.Sprintf("Failed to enroll user: %s", err.Error()))
		}
	}

	handlerLogger.WithField("enrollment_id", e.ID).Info("User enrolled")
	return c.Send(fmt.Sprintf("User %d enrolled in batch %d with %s access.", e.UserID, e.BatchID, e.AccessLevel))
}

func (h *adminHandlers) upcoming(c telebot.Context) error {
	handlerLogger, ok := h.authorize(c, "/upcoming")
	if !ok {
		return c.Send(msgUnauthorized)
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Send("Invalid format. Use: /upcoming <class>")
	}
	className := args[0]

	batches, err := h.adminService.Upcoming(h.ctx, c.Sender().ID, className, upcomingPerBatch)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to list upcoming sessions")
		return c.Send(fmt.Sprintf("Failed to list upcoming sessions: %s", err.Error()))
	}
	if len(batches) == 0 {
		return c.Send(fmt.Sprintf("No active batches for %s.", className))
	}

	var response strings.Builder
	for _, ub := range batches {
		fmt.Fprintf(&response, "--- %s batch #%d (ID %d), started %s ---\n",
			ub.Batch.ClassName, ub.Batch.Number, ub.Batch.ID, ub.Batch.StartDate.Format("2006-01-02"))
		if len(ub.Sessions) == 0 {
			response.WriteString("no upcoming sessions\n")
		}
		for _, s := range ub.Sessions {
			response.WriteString(formatSessionLine(s))
			response.WriteString("\n")
		}
	}
	return c.Send(response.String())
}

func (h *adminHandlers) startSession(c telebot.Context) error {
	return h.transition(c, "/start_session", h.sessionService.Start, "started")
}

func (h *adminHandlers) completeSession(c telebot.Context) error {
	return h.transition(c, "/complete_session", h.sessionService.Complete, "completed")
}

func (h *adminHandlers) transition(c telebot.Context, command string, apply func(context.Context, int64) error, verb string) error {
	handlerLogger, ok := h.authorize(c, command)
	if !ok {
		return c.Send(msgUnauthorized)
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Send(fmt.Sprintf("Invalid format. Use: %s <session_id>", command))
	}
	sessionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Error: session ID must be a number.")
	}
	handlerLogger = handlerLogger.WithField("session_id", sessionID)

	if err := apply(h.ctx, sessionID); err != nil {
		logWithError := handlerLogger.WithError(err)
		switch {
		case errors.Is(err, session.ErrNotFound):
			logWithError.Warn("Session not found")
			return c.Send(fmt.Sprintf("Session %d not found.", sessionID))
		case errors.Is(err, app.ErrInvalidTransition):
			logWithError.Warn("Invalid session transition")
			return c.Send(fmt.Sprintf("Session %d cannot be %s: %s", sessionID, verb, err.Error()))
		default:
			logWithError.Error("Failed to update session")
			return c.Send(fmt.Sprintf("Failed to update session %d: %s", sessionID, err.Error()))
		}
	}

	handlerLogger.Info("Session " + verb)
	return c.Send(fmt.Sprintf("Session %d %s.", sessionID, verb))
}

func formatSessionLine(s *session.Session) string {
	free := ""
	if s.IsFree {
		free = " (free)"
	}
	return fmt.Sprintf("#%d %s %s lesson %d: %s%s [%s]",
		s.ID, s.SessionDate.Format("2006-01-02"), s.Slot, s.Ordinal, s.ContentTitle, free, s.Status)
}
