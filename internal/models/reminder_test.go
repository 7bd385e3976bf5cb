package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hray3182/RemindLine/internal/errors"
	"github.com/hray3182/RemindLine/internal/recurrence"
)

func local(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.Local)
}

func weeklyMonday(anchor time.Time) *recurrence.Derivation {
	return &recurrence.Derivation{Kind: recurrence.KindRecurring, Rule: "FREQ=WEEKLY;BYDAY=MO", Anchor: anchor}
}

func TestNewReminderOneShot(t *testing.T) {
	now := local(2024, 5, 15, 14, 30)
	at := local(2024, 7, 1, 10, 0)

	r, err := NewReminder(1, "dentist", "2024-07-01 10:00", &recurrence.Derivation{Kind: recurrence.KindOneShot, At: at, Anchor: now}, now)
	require.NoError(t, err)
	assert.Equal(t, StateOneShot, r.State())
	assert.Empty(t, r.RRule)
	assert.True(t, r.NextRemindAt.Equal(at))
	assert.True(t, r.Dtstart.Equal(now))
	assert.Equal(t, DefaultDaysInAdvance, r.DaysInAdvance)
}

func TestNewReminderTruncatesTimestamps(t *testing.T) {
	now := time.Date(2024, 5, 15, 14, 30, 45, 123456789, time.Local)
	at := local(2024, 7, 1, 10, 0)

	r, err := NewReminder(1, "dentist", "2024-07-01 10:00", &recurrence.Derivation{Kind: recurrence.KindOneShot, At: at, Anchor: now}, now)
	require.NoError(t, err)
	want := time.Date(2024, 5, 15, 14, 30, 45, 0, time.Local)
	assert.True(t, r.CreatedAt.Equal(want), "created = %s", r.CreatedAt)
	assert.True(t, r.UpdatedAt.Equal(want), "updated = %s", r.UpdatedAt)
	assert.True(t, r.Dtstart.Equal(want), "dtstart = %s", r.Dtstart)
}

func TestNewReminderRecurring(t *testing.T) {
	now := local(2024, 5, 15, 14, 30) // Wednesday
	anchor := local(2023, 1, 2, 0, 0)

	r, err := NewReminder(1, "standup", "every monday since 2023-01-02", weeklyMonday(anchor), now)
	require.NoError(t, err)
	assert.Equal(t, StateRecurring, r.State())
	assert.True(t, r.Dtstart.Equal(anchor))
	assert.True(t, r.NextRemindAt.Equal(local(2024, 5, 20, 0, 0)), "next = %s", r.NextRemindAt)
	assert.False(t, r.NextRemindAt.Before(r.Dtstart))
}

func TestNewReminderExhausted(t *testing.T) {
	now := local(2024, 5, 15, 14, 30)
	d := &recurrence.Derivation{Kind: recurrence.KindRecurring, Rule: "FREQ=DAILY;COUNT=1", Anchor: local(2020, 1, 1, 0, 0)}

	_, err := NewReminder(1, "old", "every day 1 times since 2020-01-01", d, now)
	assert.True(t, apperrors.Is(err, apperrors.ErrExhaustedRule), "err = %v", err)
}

func TestCompleteAdvancesFromCurrentOccurrence(t *testing.T) {
	now := local(2024, 5, 15, 14, 30)
	r, err := NewReminder(1, "standup", "every monday", weeklyMonday(local(2024, 1, 1, 9, 0)), now)
	require.NoError(t, err)
	first := r.NextRemindAt
	require.True(t, first.Equal(local(2024, 5, 20, 9, 0)))

	// Wall clock is irrelevant: completing three times lands on the third
	// occurrence after the original one.
	for i, clock := range []time.Time{local(2024, 5, 1, 0, 0), local(2025, 1, 1, 0, 0), now} {
		require.NoError(t, r.Complete(clock), "complete #%d", i+1)
	}
	assert.True(t, r.NextRemindAt.Equal(first.AddDate(0, 0, 21)), "next = %s", r.NextRemindAt)
	assert.False(t, r.Finished)
}

func TestCompleteOneShotFinishes(t *testing.T) {
	now := local(2024, 5, 15, 14, 30)
	at := local(2024, 5, 16, 9, 0)
	r, err := NewReminder(1, "call", "tomorrow 9am", &recurrence.Derivation{Kind: recurrence.KindOneShot, At: at}, now)
	require.NoError(t, err)

	require.NoError(t, r.Complete(now))
	assert.True(t, r.Finished)
	assert.Equal(t, StateFinished, r.State())
	assert.True(t, r.NextRemindAt.Equal(at))

	err = r.Complete(now)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCompleteExhaustedRuleFinishes(t *testing.T) {
	now := local(2024, 5, 15, 14, 30)
	d := &recurrence.Derivation{Kind: recurrence.KindRecurring, Rule: "FREQ=DAILY;COUNT=2", Anchor: local(2024, 5, 15, 9, 0)}
	r, err := NewReminder(1, "pill", "every day 2 times", d, now)
	require.NoError(t, err)
	require.True(t, r.NextRemindAt.Equal(local(2024, 5, 16, 9, 0)))

	require.NoError(t, r.Complete(now))
	assert.True(t, r.Finished)
	assert.True(t, r.NextRemindAt.Equal(local(2024, 5, 16, 9, 0)))
}

func TestResetNextRemindAt(t *testing.T) {
	created := local(2024, 5, 15, 14, 30)
	r, err := NewReminder(1, "standup", "every monday", weeklyMonday(local(2024, 1, 1, 9, 0)), created)
	require.NoError(t, err)
	require.NoError(t, r.Delay(DelayMonth, created))

	require.NoError(t, r.ResetNextRemindAt(local(2024, 6, 5, 12, 0)))
	assert.True(t, r.NextRemindAt.Equal(local(2024, 6, 10, 9, 0)), "next = %s", r.NextRemindAt)
}

func TestResetOneShotIsNoop(t *testing.T) {
	now := local(2024, 5, 15, 14, 30)
	at := local(2024, 5, 20, 9, 0)
	r, err := NewReminder(1, "x", "in 5 days", &recurrence.Derivation{Kind: recurrence.KindOneShot, At: at}, now)
	require.NoError(t, err)
	require.NoError(t, r.Delay(DelayDay, now))

	require.NoError(t, r.ResetNextRemindAt(now))
	assert.True(t, r.NextRemindAt.Equal(at.AddDate(0, 0, 1)))
}

func TestDelay(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		unit DelayUnit
		want time.Time
	}{
		{"day", local(2024, 2, 28, 9, 0), DelayDay, local(2024, 2, 29, 9, 0)},
		{"week", local(2024, 12, 28, 9, 0), DelayWeek, local(2025, 1, 4, 9, 0)},
		{"month leap clamp", local(2024, 1, 31, 9, 0), DelayMonth, local(2024, 2, 29, 9, 0)},
		{"month clamp", local(2023, 1, 31, 9, 0), DelayMonth, local(2023, 2, 28, 9, 0)},
		{"month plain", local(2024, 3, 15, 9, 0), DelayMonth, local(2024, 4, 15, 9, 0)},
		{"month year wrap", local(2024, 12, 31, 9, 0), DelayMonth, local(2025, 1, 31, 9, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reminder{RRule: "FREQ=DAILY", Dtstart: local(2020, 1, 1, 9, 0), NextRemindAt: tt.from}
			require.NoError(t, r.Delay(tt.unit, tt.from))
			assert.True(t, r.NextRemindAt.Equal(tt.want), "got %s", r.NextRemindAt)
			assert.Equal(t, "FREQ=DAILY", r.RRule)
			assert.True(t, r.Dtstart.Equal(local(2020, 1, 1, 9, 0)))
		})
	}
}

func TestDelayUnknownUnit(t *testing.T) {
	r := &Reminder{NextRemindAt: local(2024, 1, 1, 0, 0)}
	err := r.Delay("fortnight", local(2024, 1, 1, 0, 0))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.True(t, r.NextRemindAt.Equal(local(2024, 1, 1, 0, 0)))
}

func TestApplyDerivationKeepsStateOnError(t *testing.T) {
	now := local(2024, 5, 15, 14, 30)
	r, err := NewReminder(1, "standup", "every monday", weeklyMonday(local(2024, 1, 1, 9, 0)), now)
	require.NoError(t, err)
	before := *r

	bad := &recurrence.Derivation{Kind: recurrence.KindRecurring, Rule: "FREQ=DAILY;COUNT=1", Anchor: local(2020, 1, 1, 0, 0)}
	err = r.ApplyDerivation(bad, now)
	require.Error(t, err)
	assert.Equal(t, before, *r)
}

func TestApplyDerivationSwitchesKind(t *testing.T) {
	now := local(2024, 5, 15, 14, 30)
	r, err := NewReminder(1, "standup", "every monday", weeklyMonday(local(2024, 1, 1, 9, 0)), now)
	require.NoError(t, err)

	at := local(2024, 8, 1, 8, 0)
	require.NoError(t, r.ApplyDerivation(&recurrence.Derivation{Kind: recurrence.KindOneShot, At: at}, now))
	assert.Equal(t, StateOneShot, r.State())
	assert.True(t, r.NextRemindAt.Equal(at))
}

func TestSetDaysInAdvance(t *testing.T) {
	r := &Reminder{DaysInAdvance: DefaultDaysInAdvance}
	now := local(2024, 5, 15, 0, 0)

	for _, days := range []int{0, 31, -3} {
		err := r.SetDaysInAdvance(days, now)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation), "days=%d", days)
	}
	assert.Equal(t, DefaultDaysInAdvance, r.DaysInAdvance)

	require.NoError(t, r.SetDaysInAdvance(1, now))
	require.NoError(t, r.SetDaysInAdvance(30, now))
	assert.Equal(t, 30, r.DaysInAdvance)
}

func TestAdvanceNoticeAt(t *testing.T) {
	r := &Reminder{NextRemindAt: local(2024, 5, 20, 9, 0), DaysInAdvance: 3}
	assert.True(t, r.AdvanceNoticeAt().Equal(local(2024, 5, 17, 9, 0)))
}
