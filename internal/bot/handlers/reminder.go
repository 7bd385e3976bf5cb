package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hray3182/RemindLine/internal/format"
	"github.com/hray3182/RemindLine/internal/models"
	"github.com/hray3182/RemindLine/internal/recurrence"
	"github.com/hray3182/RemindLine/internal/rrule"
)

const previewCount = 5

var (
	idArgRe     = regexp.MustCompile(`^\d+$`)
	setAdvArgRe = regexp.MustCompile(`^(\d+)\s+(-?\d+)$`)
	editArgRe   = regexp.MustCompile(`^(\d+)\s+(.+)$`)
)

var delayUnits = map[string]models.DelayUnit{
	"delayd": models.DelayDay,
	"delayw": models.DelayWeek,
	"delaym": models.DelayMonth,
}

var delayReplies = map[models.DelayUnit]string{
	models.DelayDay:   "Reminder delayed by 1 day",
	models.DelayWeek:  "Reminder delayed by 1 week",
	models.DelayMonth: "Reminder delayed by 1 month",
}

func (h *Handlers) handleDueSoon(ctx context.Context, log logrus.FieldLogger, userID int64) string {
	rems, err := h.reminders.DueSoon(ctx, userID)
	if err != nil {
		return errorReply(log, err, 0)
	}
	return format.List("Here are your reminders:", rems)
}

func (h *Handlers) handleListAll(ctx context.Context, log logrus.FieldLogger, userID int64) string {
	rems, err := h.reminders.AllActive(ctx, userID)
	if err != nil {
		return errorReply(log, err, 0)
	}
	return format.List("Here are your reminders:", rems)
}

// handleCreate expects "<recurrence>\n<text>".
func (h *Handlers) handleCreate(ctx context.Context, log logrus.FieldLogger, userID int64, args string) string {
	recurrenceText, text, ok := splitSchedule(args)
	if !ok {
		return "Usage: /on &lt;recurrence&gt;, then the reminder text on the next line"
	}

	rem, err := h.reminders.Create(ctx, userID, text, recurrenceText)
	if err != nil {
		return errorReply(log, err, 0)
	}
	log.WithField("reminder_id", rem.ID).Info("Reminder created")
	return fmt.Sprintf("Created reminder %d, will trigger at %s", rem.ID, rem.NextRemindAt.Format("2006-01-02 15:04"))
}

func (h *Handlers) handleGet(ctx context.Context, log logrus.FieldLogger, userID int64, args string) string {
	id, ok := parseID(args)
	if !ok {
		return "Usage: /get &lt;id&gt;"
	}
	rem, err := h.reminders.Get(ctx, userID, id)
	if err != nil {
		return errorReply(log, err, id)
	}
	return format.Detail(rem)
}

func (h *Handlers) handleDelete(ctx context.Context, log logrus.FieldLogger, userID int64, args string) string {
	id, ok := parseID(args)
	if !ok {
		return "Usage: /del &lt;id&gt;"
	}
	if err := h.reminders.Delete(ctx, userID, id); err != nil {
		return errorReply(log, err, id)
	}
	log.WithField("reminder_id", id).Info("Reminder deleted")
	return fmt.Sprintf("Reminder %d deleted", id)
}

func (h *Handlers) handleDone(ctx context.Context, log logrus.FieldLogger, userID int64, args string) string {
	id, ok := parseID(args)
	if !ok {
		return "Usage: /done &lt;id&gt;"
	}
	rem, err := h.reminders.Complete(ctx, userID, id)
	if err != nil {
		return errorReply(log, err, id)
	}
	if rem.Finished {
		return "Reminder done"
	}
	return fmt.Sprintf("Reminder done, next at %s", rem.NextRemindAt.Format("2006-01-02 15:04"))
}

func (h *Handlers) handleDelay(ctx context.Context, log logrus.FieldLogger, userID int64, command, args string) string {
	id, ok := parseID(args)
	if !ok {
		return fmt.Sprintf("Usage: /%s &lt;id&gt;", command)
	}
	unit := delayUnits[command]
	if _, err := h.reminders.Delay(ctx, userID, id, unit); err != nil {
		return errorReply(log, err, id)
	}
	return delayReplies[unit]
}

func (h *Handlers) handleReset(ctx context.Context, log logrus.FieldLogger, userID int64, args string) string {
	id, ok := parseID(args)
	if !ok {
		return "Usage: /reset &lt;id&gt;"
	}
	if _, err := h.reminders.Reset(ctx, userID, id); err != nil {
		return errorReply(log, err, id)
	}
	return "Reminder reset"
}

// handleEdit prints a copyable command for "/edit <id>", and applies
// "/edit <id> <recurrence>\n<text>".
func (h *Handlers) handleEdit(ctx context.Context, log logrus.FieldLogger, userID int64, args string) string {
	args = strings.TrimSpace(args)
	if id, ok := parseID(args); ok {
		rem, err := h.reminders.Get(ctx, userID, id)
		if err != nil {
			return errorReply(log, err, id)
		}
		return format.EditCommand(rem)
	}

	firstLine, _, _ := strings.Cut(args, "\n")
	m := editArgRe.FindStringSubmatch(strings.TrimSpace(firstLine))
	if m == nil {
		return "Usage: /edit &lt;id&gt; &lt;recurrence&gt;, then the reminder text on the next line"
	}
	id, _ := strconv.ParseInt(m[1], 10, 64)
	recurrenceText, text, ok := splitSchedule(strings.TrimSpace(strings.TrimPrefix(args, m[1])))
	if !ok {
		return "Usage: /edit &lt;id&gt; &lt;recurrence&gt;, then the reminder text on the next line"
	}

	if _, err := h.reminders.Edit(ctx, userID, id, text, recurrenceText); err != nil {
		return errorReply(log, err, id)
	}
	log.WithField("reminder_id", id).Info("Reminder edited")
	return fmt.Sprintf("Reminder %d saved", id)
}

func (h *Handlers) handleSetAdvance(ctx context.Context, log logrus.FieldLogger, userID int64, args string) string {
	m := setAdvArgRe.FindStringSubmatch(strings.TrimSpace(args))
	if m == nil {
		return "Usage: /setadv &lt;id&gt; &lt;days&gt;"
	}
	id, _ := strconv.ParseInt(m[1], 10, 64)
	days, err := strconv.Atoi(m[2])
	if err != nil {
		return "Usage: /setadv &lt;id&gt; &lt;days&gt;"
	}

	if _, err := h.reminders.SetAdvanceNotice(ctx, userID, id, days); err != nil {
		return errorReply(log, err, id)
	}
	return fmt.Sprintf("Reminder %d will show up %d days in advance", id, days)
}

func (h *Handlers) handlePreview(ctx context.Context, log logrus.FieldLogger, args string) string {
	text := strings.TrimSpace(args)
	if text == "" {
		return "Usage: /preview &lt;recurrence&gt;"
	}

	now := h.now()
	d, err := h.deriver.Derive(ctx, text, now, now)
	if err != nil {
		return errorReply(log, err, 0)
	}

	if d.Kind == recurrence.KindRecurring {
		next, err := rrule.NextOccurrences(d.Rule, d.Anchor, now, previewCount)
		if err != nil {
			return errorReply(log, err, 0)
		}
		return "<pre>" + format.Escape(format.Preview(d, next)) + "</pre>"
	}
	return "<pre>" + format.Escape(format.Preview(d, nil)) + "</pre>"
}

func parseID(args string) (int64, bool) {
	args = strings.TrimSpace(args)
	if !idArgRe.MatchString(args) {
		return 0, false
	}
	id, err := strconv.ParseInt(args, 10, 64)
	return id, err == nil
}

// splitSchedule splits "<recurrence>\n<text>" into its two trimmed parts.
func splitSchedule(args string) (string, string, bool) {
	recurrenceText, text, found := strings.Cut(args, "\n")
	if !found {
		return "", "", false
	}
	recurrenceText = strings.TrimSpace(recurrenceText)
	text = strings.TrimSpace(text)
	if recurrenceText == "" || text == "" {
		return "", "", false
	}
	return recurrenceText, text, true
}
