// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"class_schedule_bot/internal/app"
	"class_schedule_bot/internal/domain/session"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	lessonCallbackPrefix = "lesson_"
	lessonsListLimit     = 7
)

type botCommands struct {
	ctx             context.Context
	adminTelegramID int64
	access          *app.AccessService
	sessions        *app.SessionService
	clock           app.Clock
	logger          *logrus.Entry
}

// RegisterBotCommands registers the commands every user can run.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	adminTelegramID int64,
	access *app.AccessService,
	sessions *app.SessionService,
	clock app.Clock,
	baseLogger *logrus.Entry,
) {
	h := &botCommands{
		ctx:             ctx,
		adminTelegramID: adminTelegramID,
		access:          access,
		sessions:        sessions,
		clock:           clock,
		logger:          baseLogger.WithField("handler_group", "user"),
	}
	b.Handle("/start", h.start)
	b.Handle("/help", h.help)
	b.Handle("/lesson", h.lesson)
	b.Handle("/lessons", h.lessons)
	b.Handle(telebot.OnCallback, h.lessonCallback)
}

func (h *botCommands) start(c telebot.Context) error {
	senderID := c.Sender().ID
	logCtx := h.logger.WithField("command", "/start").WithField("sender_id", senderID)
	logCtx.Info("Processing /start command")

	if senderID == h.adminTelegramID {
		return c.Send(fmt.Sprintf("Hello, %s! The scheduler is running. Use /help for the admin commands.", c.Sender().FirstName))
	}
	return c.Send(fmt.Sprintf("Hello, %s! I send reminders before every class session. Your user ID is %d; give it to the admin to get enrolled.", c.Sender().FirstName, senderID))
}

func (h *botCommands) help(c telebot.Context) error {
	senderID := c.Sender().ID
	h.logger.WithField("command", "/help").WithField("sender_id", senderID).Info("Processing /help command")

	var helpText strings.Builder
	helpText.WriteString("Commands:\n\n")
	helpText.WriteString("/lessons <batch_id> - upcoming lessons of a batch\n")
	helpText.WriteString("/lesson <session_id> - open a lesson you have access to\n")
	helpText.WriteString("/help - this message\n")
	if senderID == h.adminTelegramID {
		helpText.WriteString("\nAdmin commands:\n\n")
		helpText.WriteString("/run_cycle - run a scheduling cycle now\n")
		helpText.WriteString("/new_batch <class> - open a batch today regardless of weekday\n")
		helpText.WriteString("/enroll <user_id> <batch_id> [limited|full] - enroll a user\n")
		helpText.WriteString("/upcoming <class> - next sessions of every active batch\n")
		helpText.WriteString("/start_session <session_id> - mark a session in progress\n")
		helpText.WriteString("/complete_session <session_id> - mark a session completed\n")
	}
	return c.Send(helpText.String())
}

func (h *botCommands) lesson(c telebot.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Invalid format. Use: /lesson <session_id>")
	}
	sessionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Error: session ID must be a number.")
	}
	return c.Send(h.openLesson(c.Sender().ID, sessionID))
}

func (h *botCommands) lessons(c telebot.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Invalid format. Use: /lessons <batch_id>")
	}
	batchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Error: batch ID must be a number.")
	}

	list, err := h.sessions.Upcoming(h.ctx, batchID, h.clock.Now(), lessonsListLimit)
	if err != nil {
		h.logger.WithError(err).WithField("batch_id", batchID).Error("Failed to list lessons")
		return c.Send("Something went wrong, please try again later.")
	}
	if len(list) == 0 {
		return c.Send(fmt.Sprintf("No upcoming lessons for batch %d.", batchID))
	}

	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(list))
	var text strings.Builder
	text.WriteString("Upcoming lessons:\n")
	for _, s := range list {
		text.WriteString(formatSessionLine(s))
		text.WriteString("\n")
		rows = append(rows, markup.Row(markup.Data(
			fmt.Sprintf("Lesson %d: %s", s.Ordinal, s.ContentTitle),
			"",
			fmt.Sprintf("%s%d", lessonCallbackPrefix, s.ID),
		)))
	}
	markup.Inline(rows...)
	return c.Send(text.String(), markup)
}

func (h *botCommands) lessonCallback(c telebot.Context) error {
	data := c.Callback().Data
	if !strings.HasPrefix(data, lessonCallbackPrefix) {
		c.Bot().OnError(fmt.Errorf("unhandled callback data: %s", data), c)
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
	}

	sessionID, err := strconv.ParseInt(strings.TrimPrefix(data, lessonCallbackPrefix), 10, 64)
	if err != nil {
		c.Bot().OnError(fmt.Errorf("invalid session id in callback %q: %w", data, err), c)
		return c.Respond(&telebot.CallbackResponse{Text: "Invalid lesson."})
	}

	if err := c.Respond(); err != nil {
		h.logger.WithError(err).Warn("Failed to acknowledge callback")
	}
	return c.Send(h.openLesson(c.Sender().ID, sessionID))
}

// openLesson runs the access gate and renders the reply.
func (h *botCommands) openLesson(userID, sessionID int64) string {
	logCtx := h.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sessionID,
	})

	lesson, err := h.access.OpenLesson(h.ctx, userID, sessionID)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotFound):
		return fmt.Sprintf("Lesson %d not found.", sessionID)
	case errors.Is(err, app.ErrAccessDenied):
		logCtx.Info("Lesson access denied")
		return "This lesson needs full access. Ask the admin to enroll you."
	default:
		logCtx.WithError(err).Error("Failed to open lesson")
		return "Something went wrong, please try again later."
	}

	logCtx.Info("Lesson opened")
	msg := fmt.Sprintf("Lesson %d: %s\n%s %s",
		lesson.Session.Ordinal, lesson.Item.Title,
		lesson.Session.SessionDate.Format("Mon 02 Jan"), lesson.Session.Slot)
	if lesson.Item.VideoURL != "" {
		msg += "\n" + lesson.Item.VideoURL
	}
	return msg
}
