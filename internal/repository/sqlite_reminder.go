package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/RemindLine/internal/models"
)

// SQLiteReminderRepository is the Store used for single-process deployments.
// Instants are stored as unix seconds.
type SQLiteReminderRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteReminderRepository)(nil)

func NewSQLiteReminderRepository(db *sql.DB) *SQLiteReminderRepository {
	return &SQLiteReminderRepository{db: db}
}

func (r *SQLiteReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (user_id, text, recurrence_text, dtstart, rrule, next_remind_date, finished, days_in_advance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reminder.OwnerID, reminder.Text, reminder.RecurrenceText, reminder.Dtstart.Unix(), reminder.RRule,
		reminder.NextRemindAt.Unix(), reminder.Finished, reminder.DaysInAdvance,
		reminder.CreatedAt.Unix(), reminder.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read reminder id: %w", err)
	}
	reminder.ID = id
	return nil
}

func (r *SQLiteReminderRepository) Get(ctx context.Context, id, ownerID int64) (*models.Reminder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	reminder, err := scanSQLiteReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reminder, err
}

func (r *SQLiteReminderRepository) Update(ctx context.Context, id, ownerID int64, fn func(*models.Reminder) error) (*models.Reminder, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	reminder, err := scanSQLiteReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := fn(reminder); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE reminders SET text = ?, recurrence_text = ?, dtstart = ?, rrule = ?, next_remind_date = ?,
		 finished = ?, days_in_advance = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		reminder.Text, reminder.RecurrenceText, reminder.Dtstart.Unix(), reminder.RRule, reminder.NextRemindAt.Unix(),
		reminder.Finished, reminder.DaysInAdvance, reminder.UpdatedAt.Unix(), id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}
	if err := checkRowsAffected(res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return reminder, nil
}

func (r *SQLiteReminderRepository) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete reminder: %w", err)
	}
	if err := checkRowsAffected(res); errors.Is(err, ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SQLiteReminderRepository) List(ctx context.Context, filter ListFilter) ([]*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id = ?`
	if !filter.IncludeFinished {
		query += ` AND finished = 0`
	}
	query += ` ORDER BY next_remind_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, filter.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanSQLiteReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReminder(row scanner) (*models.Reminder, error) {
	var (
		reminder                                     models.Reminder
		dtstart, next, createdAt, updatedAt, finished int64
	)
	err := row.Scan(&reminder.ID, &reminder.OwnerID, &reminder.Text, &reminder.RecurrenceText, &dtstart,
		&reminder.RRule, &next, &finished, &reminder.DaysInAdvance, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	reminder.Dtstart = time.Unix(dtstart, 0).Local()
	reminder.NextRemindAt = time.Unix(next, 0).Local()
	reminder.Finished = finished != 0
	reminder.CreatedAt = time.Unix(createdAt, 0).Local()
	reminder.UpdatedAt = time.Unix(updatedAt, 0).Local()
	return &reminder, nil
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
