package repository

import (
	"context"
	"errors"

	"github.com/hray3182/RemindLine/internal/models"
)

// ErrNotFound is returned when no reminder matches both id and owner.
var ErrNotFound = errors.New("repository: reminder not found")

// ListFilter selects reminders for List. Results are always ordered by
// next_remind_date ascending, then id.
type ListFilter struct {
	OwnerID         int64
	IncludeFinished bool
}

// Store persists reminders. Update is an atomic read-modify-write of a single
// record: fn runs against the current row and nothing is written if it
// returns an error.
type Store interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	Get(ctx context.Context, id, ownerID int64) (*models.Reminder, error)
	Update(ctx context.Context, id, ownerID int64, fn func(*models.Reminder) error) (*models.Reminder, error)
	Delete(ctx context.Context, id, ownerID int64) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Reminder, error)
}
