// Package format renders reminders as Telegram HTML replies.
package format

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/RemindLine/internal/models"
	"github.com/hray3182/RemindLine/internal/recurrence"
	"github.com/hray3182/RemindLine/internal/rrule"
)

// MaxMessageLen is Telegram's message limit in UTF-16 code units.
const MaxMessageLen = 4096

const dateLayout = "2006-01-02 15:04"

// UTF16Len calculates the UTF-16 length of a string.
// Telegram counts message length in UTF-16 code units.
func UTF16Len(s string) int {
	length := 0
	for _, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1 // invalid runes are sent as U+FFFD
		}
		length += n
	}
	return length
}

// Escape makes user text safe inside an HTML reply.
func Escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

// Line is the one-line summary used in listings:
// "2024-05-20 09:00 (3)<14> standup".
func Line(r *models.Reminder) string {
	return fmt.Sprintf("%s (%d)&lt;%d&gt; %s", r.NextRemindAt.Format(dateLayout), r.ID, r.DaysInAdvance, Escape(r.Text))
}

// List renders a header followed by one line per reminder, truncated to the
// message limit without splitting a line.
func List(header string, reminders []*models.Reminder) string {
	if len(reminders) == 0 {
		return Escape(header) + "\nNothing here."
	}
	lines := make([]string, 0, len(reminders)+1)
	lines = append(lines, Escape(header))
	for _, r := range reminders {
		lines = append(lines, Line(r))
	}
	return Truncate(strings.Join(lines, "\n"), MaxMessageLen)
}

// Detail renders every field of a reminder.
func Detail(r *models.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Reminder %d</b>\n", r.ID)
	fmt.Fprintf(&b, "Text: %s\n", Escape(r.Text))
	fmt.Fprintf(&b, "Recurrence: %s\n", Escape(r.RecurrenceText))
	if r.IsRecurring() {
		fmt.Fprintf(&b, "Rule: <code>%s</code> (%s)\n", Escape(r.RRule), Escape(rrule.Describe(r.RRule)))
		fmt.Fprintf(&b, "Since: %s\n", r.Dtstart.Format(dateLayout))
	}
	fmt.Fprintf(&b, "Next: %s\n", r.NextRemindAt.Format(dateLayout))
	fmt.Fprintf(&b, "Notice: %d days (from %s)\n", r.DaysInAdvance, r.AdvanceNoticeAt().Format(dateLayout))
	fmt.Fprintf(&b, "State: %s", r.State())
	return Truncate(b.String(), MaxMessageLen)
}

// EditCommand renders a ready-to-copy /edit command for r.
func EditCommand(r *models.Reminder) string {
	cmd := fmt.Sprintf("/edit %d %s\n%s", r.ID, r.RecurrenceText, r.Text)
	return "Copy the following command:\n<pre>" + Escape(cmd) + "</pre>"
}

// Truncate cuts s to at most max UTF-16 units. It prefers dropping whole
// lines so HTML entities and tags stay intact.
func Truncate(s string, max int) string {
	if UTF16Len(s) <= max {
		return s
	}

	var (
		b    strings.Builder
		used int
	)
	for i, line := range strings.Split(s, "\n") {
		n := UTF16Len(line)
		if i > 0 {
			n++
		}
		if used+n > max {
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		used += n
	}
	if used > 0 {
		return b.String()
	}

	// A single oversized first line: cut by rune.
	b.Reset()
	used = 0
	for _, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if used+n > max {
			break
		}
		b.WriteRune(r)
		used += n
	}
	return b.String()
}

// Preview renders a derivation and its upcoming occurrences as plain text.
func Preview(d *recurrence.Derivation, upcoming []time.Time) string {
	var b strings.Builder
	if d.Kind == recurrence.KindOneShot {
		fmt.Fprintf(&b, "One-shot at %s", d.At.Format(dateLayout))
		return b.String()
	}

	fmt.Fprintf(&b, "Recurring: %s\n", rrule.Describe(d.Rule))
	fmt.Fprintf(&b, "Rule: %s\n", d.Rule)
	fmt.Fprintf(&b, "Since: %s\n", d.Anchor.Format(dateLayout))
	if len(upcoming) == 0 {
		b.WriteString("No upcoming occurrences")
		return b.String()
	}
	b.WriteString("Next:")
	for _, t := range upcoming {
		fmt.Fprintf(&b, "\n  %s", t.Format("2006-01-02 15:04 Mon"))
	}
	return b.String()
}
