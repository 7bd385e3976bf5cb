package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/RemindLine/internal/database"
	"github.com/hray3182/RemindLine/internal/models"
)

func setupRepo(t *testing.T) *SQLiteReminderRepository {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "reminders-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteReminderRepository(db)
}

func newReminder(owner int64, text string, next time.Time) *models.Reminder {
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.Local)
	return &models.Reminder{
		OwnerID:        owner,
		Text:           text,
		RecurrenceText: "every monday",
		Dtstart:        now,
		RRule:          "FREQ=WEEKLY;BYDAY=MO",
		NextRemindAt:   next,
		DaysInAdvance:  models.DefaultDaysInAdvance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestSQLiteCreateAndGet(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	rem := newReminder(7, "standup", time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local))
	require.NoError(t, repo.Create(ctx, rem))
	assert.NotZero(t, rem.ID)

	got, err := repo.Get(ctx, rem.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "standup", got.Text)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO", got.RRule)
	assert.True(t, got.NextRemindAt.Equal(rem.NextRemindAt))
	assert.True(t, got.Dtstart.Equal(rem.Dtstart))
	assert.False(t, got.Finished)

	second := newReminder(7, "other", rem.NextRemindAt)
	require.NoError(t, repo.Create(ctx, second))
	assert.Greater(t, second.ID, rem.ID)
}

func TestSQLiteGetChecksOwner(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	rem := newReminder(7, "private", time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local))
	require.NoError(t, repo.Create(ctx, rem))

	_, err := repo.Get(ctx, rem.ID, 8)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Get(ctx, rem.ID+100, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteUpdate(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	rem := newReminder(7, "standup", time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local))
	require.NoError(t, repo.Create(ctx, rem))

	updated, err := repo.Update(ctx, rem.ID, 7, func(r *models.Reminder) error {
		r.Text = "standup v2"
		r.Finished = true
		r.DaysInAdvance = 3
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "standup v2", updated.Text)

	got, err := repo.Get(ctx, rem.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "standup v2", got.Text)
	assert.True(t, got.Finished)
	assert.Equal(t, 3, got.DaysInAdvance)
}

func TestSQLiteUpdateAbortsOnError(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	rem := newReminder(7, "standup", time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local))
	require.NoError(t, repo.Create(ctx, rem))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, rem.ID, 7, func(r *models.Reminder) error {
		r.Text = "should not persist"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, rem.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "standup", got.Text)

	_, err = repo.Update(ctx, rem.ID, 8, func(*models.Reminder) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteDelete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	rem := newReminder(7, "standup", time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local))
	require.NoError(t, repo.Create(ctx, rem))

	deleted, err := repo.Delete(ctx, rem.ID, 8)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Delete(ctx, rem.ID, 7)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, rem.ID, 7)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Get(ctx, rem.ID, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local)

	late := newReminder(7, "late", base.AddDate(0, 1, 0))
	early := newReminder(7, "early", base)
	done := newReminder(7, "done", base.AddDate(0, 0, -1))
	done.Finished = true
	foreign := newReminder(9, "foreign", base)

	for _, r := range []*models.Reminder{late, early, done, foreign} {
		require.NoError(t, repo.Create(ctx, r))
	}

	active, err := repo.List(ctx, ListFilter{OwnerID: 7})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "early", active[0].Text)
	assert.Equal(t, "late", active[1].Text)

	all, err := repo.List(ctx, ListFilter{OwnerID: 7, IncludeFinished: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "done", all[0].Text)

	none, err := repo.List(ctx, ListFilter{OwnerID: 42})
	require.NoError(t, err)
	assert.Empty(t, none)
}
