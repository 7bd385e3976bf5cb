package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/RemindLine/internal/database"
	"github.com/hray3182/RemindLine/internal/models"
)

const reminderColumns = `id, user_id, text, recurrence_text, dtstart, rrule, next_remind_date, finished, days_in_advance, created_at, updated_at`

// ReminderRepository is the PostgreSQL Store.
type ReminderRepository struct {
	db *database.DB
}

var _ Store = (*ReminderRepository)(nil)

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (user_id, text, recurrence_text, dtstart, rrule, next_remind_date, finished, days_in_advance, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		reminder.OwnerID, reminder.Text, reminder.RecurrenceText, reminder.Dtstart, reminder.RRule,
		reminder.NextRemindAt, reminder.Finished, reminder.DaysInAdvance, reminder.CreatedAt, reminder.UpdatedAt,
	).Scan(&reminder.ID)
}

func (r *ReminderRepository) Get(ctx context.Context, id, ownerID int64) (*models.Reminder, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	reminder, err := scanPgReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reminder, err
}

func (r *ReminderRepository) Update(ctx context.Context, id, ownerID int64, fn func(*models.Reminder) error) (*models.Reminder, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, ownerID,
	)
	reminder, err := scanPgReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := fn(reminder); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE reminders SET text = $1, recurrence_text = $2, dtstart = $3, rrule = $4, next_remind_date = $5,
		 finished = $6, days_in_advance = $7, updated_at = $8
		 WHERE id = $9 AND user_id = $10`,
		reminder.Text, reminder.RecurrenceText, reminder.Dtstart, reminder.RRule, reminder.NextRemindAt,
		reminder.Finished, reminder.DaysInAdvance, reminder.UpdatedAt, id, ownerID,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return reminder, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ReminderRepository) List(ctx context.Context, filter ListFilter) ([]*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id = $1`
	if !filter.IncludeFinished {
		query += ` AND finished = false`
	}
	query += ` ORDER BY next_remind_date ASC, id ASC`

	rows, err := r.db.Pool.Query(ctx, query, filter.OwnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanPgReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func scanPgReminder(row pgx.Row) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	err := row.Scan(&reminder.ID, &reminder.OwnerID, &reminder.Text, &reminder.RecurrenceText, &reminder.Dtstart,
		&reminder.RRule, &reminder.NextRemindAt, &reminder.Finished, &reminder.DaysInAdvance,
		&reminder.CreatedAt, &reminder.UpdatedAt)
	if err != nil {
		return nil, err
	}
	toLocal(reminder)
	return reminder, nil
}

// toLocal moves stored instants into the process time zone, where all
// recurrence arithmetic happens.
func toLocal(reminder *models.Reminder) {
	reminder.Dtstart = reminder.Dtstart.Local()
	reminder.NextRemindAt = reminder.NextRemindAt.Local()
	reminder.CreatedAt = reminder.CreatedAt.Local()
	reminder.UpdatedAt = reminder.UpdatedAt.Local()
}
