package models

import (
	"errors"
	"fmt"
	"time"

	apperrors "github.com/hray3182/RemindLine/internal/errors"
	"github.com/hray3182/RemindLine/internal/recurrence"
	"github.com/hray3182/RemindLine/internal/rrule"
)

const (
	DefaultDaysInAdvance = 14
	MinDaysInAdvance     = 1
	MaxDaysInAdvance     = 30
)

// State is the schedule state of a reminder.
type State string

const (
	StateRecurring State = "recurring"
	StateOneShot   State = "one-shot"
	StateFinished  State = "finished"
)

// DelayUnit is a fixed calendar offset applied by Delay.
type DelayUnit string

const (
	DelayDay   DelayUnit = "day"
	DelayWeek  DelayUnit = "week"
	DelayMonth DelayUnit = "month"
)

type Reminder struct {
	ID             int64     `json:"id"`
	OwnerID        int64     `json:"owner_id"`
	Text           string    `json:"text"`
	RecurrenceText string    `json:"recurrence_text"`
	Dtstart        time.Time `json:"dtstart"`         // Anchor the RRULE counts from
	RRule          string    `json:"rrule,omitempty"` // RFC 5545 RRULE, empty for one-shot
	NextRemindAt   time.Time `json:"next_remind_at"`  // Cached next occurrence
	Finished       bool      `json:"finished"`
	DaysInAdvance  int       `json:"days_in_advance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsRecurring returns true if this reminder has a recurrence rule
func (r *Reminder) IsRecurring() bool {
	return r.RRule != ""
}

func (r *Reminder) State() State {
	switch {
	case r.Finished:
		return StateFinished
	case r.IsRecurring():
		return StateRecurring
	default:
		return StateOneShot
	}
}

// NewReminder builds an unsaved reminder from a derivation made with
// anchor hint now.
func NewReminder(ownerID int64, text, recurrenceText string, d *recurrence.Derivation, now time.Time) (*Reminder, error) {
	now = now.Truncate(time.Second)
	r := &Reminder{
		OwnerID:        ownerID,
		Text:           text,
		RecurrenceText: recurrenceText,
		Dtstart:        rrule.Anchor(now),
		DaysInAdvance:  DefaultDaysInAdvance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.applyDerivation(d, now); err != nil {
		return nil, err
	}
	return r, nil
}

// ApplyDerivation replaces the schedule with d and recomputes the next
// trigger. On error the reminder is left unchanged.
func (r *Reminder) ApplyDerivation(d *recurrence.Derivation, now time.Time) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	return r.applyDerivation(d, now)
}

func (r *Reminder) applyDerivation(d *recurrence.Derivation, now time.Time) error {
	if d.Kind == recurrence.KindOneShot {
		r.RRule = ""
		r.NextRemindAt = d.At
		r.UpdatedAt = now
		return nil
	}

	next, err := nextOccurrence(d.Rule, d.Anchor, now)
	if err != nil {
		return err
	}
	r.RRule = d.Rule
	r.Dtstart = d.Anchor
	r.NextRemindAt = next
	r.UpdatedAt = now
	return nil
}

// ResetNextRemindAt recomputes the next trigger of a recurring reminder
// relative to now. One-shot reminders keep their fixed date.
func (r *Reminder) ResetNextRemindAt(now time.Time) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	if !r.IsRecurring() {
		return nil
	}
	next, err := nextOccurrence(r.RRule, r.Dtstart, now)
	if err != nil {
		return err
	}
	r.NextRemindAt = next
	r.UpdatedAt = now
	return nil
}

// Complete acknowledges the current occurrence. Recurring reminders advance
// to the occurrence after the current NextRemindAt, so completing early or
// late neither skips nor repeats one. One-shot reminders, and recurring ones
// whose rule has run out, become finished.
func (r *Reminder) Complete(now time.Time) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	r.UpdatedAt = now
	if !r.IsRecurring() {
		r.Finished = true
		return nil
	}

	next, err := rrule.NextAfter(r.RRule, r.Dtstart, r.NextRemindAt)
	if errors.Is(err, rrule.ErrExhausted) {
		r.Finished = true
		return nil
	}
	if err != nil {
		return apperrors.NewInternal(err)
	}
	r.NextRemindAt = next
	return nil
}

// Delay pushes NextRemindAt by one unit. The rule and anchor are untouched.
func (r *Reminder) Delay(unit DelayUnit, now time.Time) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	switch unit {
	case DelayDay:
		r.NextRemindAt = r.NextRemindAt.AddDate(0, 0, 1)
	case DelayWeek:
		r.NextRemindAt = r.NextRemindAt.AddDate(0, 0, 7)
	case DelayMonth:
		r.NextRemindAt = AddMonthsClamped(r.NextRemindAt, 1)
	default:
		return apperrors.NewValidation(fmt.Sprintf("unknown delay unit %q", unit))
	}
	r.UpdatedAt = now
	return nil
}

// SetDaysInAdvance updates the advance notice window.
func (r *Reminder) SetDaysInAdvance(days int, now time.Time) error {
	if err := ValidateDaysInAdvance(days); err != nil {
		return err
	}
	if err := r.checkActive(); err != nil {
		return err
	}
	r.DaysInAdvance = days
	r.UpdatedAt = now
	return nil
}

func ValidateDaysInAdvance(days int) error {
	if days < MinDaysInAdvance || days > MaxDaysInAdvance {
		return apperrors.NewValidation(fmt.Sprintf("days must be between %d and %d", MinDaysInAdvance, MaxDaysInAdvance))
	}
	return nil
}

// AdvanceNoticeAt is the instant from which the reminder counts as due soon.
func (r *Reminder) AdvanceNoticeAt() time.Time {
	return r.NextRemindAt.AddDate(0, 0, -r.DaysInAdvance)
}

func (r *Reminder) checkActive() error {
	if r.Finished {
		return apperrors.NewValidation(fmt.Sprintf("reminder %d is finished", r.ID))
	}
	return nil
}

func nextOccurrence(rule string, anchor, ref time.Time) (time.Time, error) {
	next, err := rrule.NextAfter(rule, anchor, ref)
	if errors.Is(err, rrule.ErrExhausted) {
		return time.Time{}, apperrors.NewExhaustedRule(rule)
	}
	if err != nil {
		return time.Time{}, apperrors.NewParse(rule, err)
	}
	return next, nil
}

// AddMonthsClamped adds months to t, clamping the day to the last day of the
// target month: Jan 31 + 1 month is the last day of February.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
