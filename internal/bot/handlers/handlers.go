package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	apperrors "github.com/hray3182/RemindLine/internal/errors"
	"github.com/hray3182/RemindLine/internal/format"
	"github.com/hray3182/RemindLine/internal/reminder"
)

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handlers struct {
	api       Sender
	reminders *reminder.Service
	deriver   reminder.Deriver
	log       logrus.FieldLogger
	now       func() time.Time
}

func New(api Sender, reminders *reminder.Service, deriver reminder.Deriver, log logrus.FieldLogger) *Handlers {
	return &Handlers{
		api:       api,
		reminders: reminders,
		deriver:   deriver,
		log:       log,
		now:       time.Now,
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	reply := h.Dispatch(ctx, msg.From.ID, msg.Command(), msg.CommandArguments())
	h.sendMessage(msg.Chat.ID, reply)
}

// Dispatch runs one command for userID and returns the HTML reply.
func (h *Handlers) Dispatch(ctx context.Context, userID int64, command, args string) string {
	log := h.log.WithFields(logrus.Fields{"user_id": userID, "command": command})
	log.Debug("handling command")

	switch command {
	case "start", "help":
		return helpText
	case "today", "list":
		return h.handleDueSoon(ctx, log, userID)
	case "listall":
		return h.handleListAll(ctx, log, userID)
	case "on":
		return h.handleCreate(ctx, log, userID, args)
	case "get":
		return h.handleGet(ctx, log, userID, args)
	case "del":
		return h.handleDelete(ctx, log, userID, args)
	case "done":
		return h.handleDone(ctx, log, userID, args)
	case "delayd", "delayw", "delaym":
		return h.handleDelay(ctx, log, userID, command, args)
	case "reset":
		return h.handleReset(ctx, log, userID, args)
	case "edit":
		return h.handleEdit(ctx, log, userID, args)
	case "setadv":
		return h.handleSetAdvance(ctx, log, userID, args)
	case "preview":
		return h.handlePreview(ctx, log, args)
	default:
		return "Unknown command, see /help"
	}
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, format.Truncate(text, format.MaxMessageLen))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.api.Send(msg); err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// errorReply turns a failed operation into a user-facing message. Internal
// failures are logged and reported generically.
func errorReply(log logrus.FieldLogger, err error, id int64) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrNotFound:
		return fmt.Sprintf("Reminder %d not found", id)
	case apperrors.ErrParse:
		return "Invalid recurrence text"
	case apperrors.ErrValidation:
		return format.Escape(validationMessage(err))
	case apperrors.ErrExhaustedRule:
		return "This schedule has no future occurrences"
	default:
		log.WithError(err).Error("Reminder operation failed")
		return "Something went wrong, please try again later"
	}
}

func validationMessage(err error) string {
	var rErr *apperrors.ReminderError
	if errors.As(err, &rErr) {
		return rErr.Message
	}
	return err.Error()
}

const helpText = `A reminder bot.

/start, /help: Display this message
/today, /list: List reminders due soon
/listall: List all reminders
/get &lt;id&gt;: Get detailed information about a reminder
/del &lt;id&gt;: Delete a reminder
/done &lt;id&gt;: Move reminder to next date
/delayd &lt;id&gt;: Delay reminder by one day
/delayw &lt;id&gt;: Delay reminder by one week
/delaym &lt;id&gt;: Delay reminder by one month
/reset &lt;id&gt;: Reset reminder
/edit &lt;id&gt;: Edit reminder
/setadv &lt;id&gt; &lt;days&gt;: Set days to remind in advance
/on &lt;recurrence&gt;: Create a new reminder, text on the next line
/preview &lt;recurrence&gt;: Show upcoming dates without saving`
