// Package reminder is the caller-facing reminder API: entity operations
// scoped to an owner, plus the listing policy.
package reminder

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/hray3182/RemindLine/internal/errors"
	"github.com/hray3182/RemindLine/internal/models"
	"github.com/hray3182/RemindLine/internal/recurrence"
	"github.com/hray3182/RemindLine/internal/repository"
)

// Deriver turns recurrence text into a schedule. *recurrence.Adapter
// implements it.
type Deriver interface {
	Derive(ctx context.Context, text string, anchorHint, now time.Time) (*recurrence.Derivation, error)
}

type Service struct {
	store   repository.Store
	deriver Deriver
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store repository.Store, deriver Deriver, opts ...Option) *Service {
	s := &Service{store: store, deriver: deriver, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create derives a schedule for recurrenceText and stores a new reminder.
func (s *Service) Create(ctx context.Context, ownerID int64, text, recurrenceText string) (*models.Reminder, error) {
	if err := validateText(text, recurrenceText); err != nil {
		return nil, err
	}
	now := s.clock()
	d, err := s.deriver.Derive(ctx, recurrenceText, now, now)
	if err != nil {
		return nil, err
	}
	rem, err := models.NewReminder(ownerID, text, recurrenceText, d, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, rem); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return rem, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*models.Reminder, error) {
	rem, err := s.store.Get(ctx, id, ownerID)
	if err != nil {
		return nil, storeError(err, id)
	}
	return rem, nil
}

// Complete acknowledges the current occurrence.
func (s *Service) Complete(ctx context.Context, ownerID, id int64) (*models.Reminder, error) {
	return s.mutate(ctx, ownerID, id, func(r *models.Reminder, now time.Time) error {
		return r.Complete(now)
	})
}

func (s *Service) Delay(ctx context.Context, ownerID, id int64, unit models.DelayUnit) (*models.Reminder, error) {
	return s.mutate(ctx, ownerID, id, func(r *models.Reminder, now time.Time) error {
		return r.Delay(unit, now)
	})
}

// Reset recomputes the next trigger of a recurring reminder from now.
func (s *Service) Reset(ctx context.Context, ownerID, id int64) (*models.Reminder, error) {
	return s.mutate(ctx, ownerID, id, func(r *models.Reminder, now time.Time) error {
		return r.ResetNextRemindAt(now)
	})
}

// Edit replaces the body and recurrence text and re-derives the schedule,
// using the current anchor as the reference for a "since" clause. On any
// error the stored reminder is unchanged.
func (s *Service) Edit(ctx context.Context, ownerID, id int64, text, recurrenceText string) (*models.Reminder, error) {
	if err := validateText(text, recurrenceText); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if current.Finished {
		return nil, apperrors.NewValidation("reminder is finished")
	}

	// Derivation may call a remote parser, so it runs before the record is
	// locked.
	d, err := s.deriver.Derive(ctx, recurrenceText, current.Dtstart, s.now())
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, ownerID, id, func(r *models.Reminder, now time.Time) error {
		if err := r.ApplyDerivation(d, now); err != nil {
			return err
		}
		r.Text = text
		r.RecurrenceText = recurrenceText
		return nil
	})
}

func (s *Service) SetAdvanceNotice(ctx context.Context, ownerID, id int64, days int) (*models.Reminder, error) {
	if err := models.ValidateDaysInAdvance(days); err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, id, func(r *models.Reminder, now time.Time) error {
		return r.SetDaysInAdvance(days, now)
	})
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	deleted, err := s.store.Delete(ctx, id, ownerID)
	if err != nil {
		return apperrors.NewInternal(err)
	}
	if !deleted {
		return apperrors.NewNotFound(id)
	}
	return nil
}

// DueSoon lists active reminders whose advance notice window has opened by
// the end of tomorrow, earliest first.
func (s *Service) DueSoon(ctx context.Context, ownerID int64) ([]*models.Reminder, error) {
	all, err := s.AllActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	cutoff := EndOfTomorrow(s.now())
	var due []*models.Reminder
	for _, r := range all {
		if !r.AdvanceNoticeAt().After(cutoff) {
			due = append(due, r)
		}
	}
	return due, nil
}

// AllActive lists every unfinished reminder, earliest first.
func (s *Service) AllActive(ctx context.Context, ownerID int64) ([]*models.Reminder, error) {
	rems, err := s.store.List(ctx, repository.ListFilter{OwnerID: ownerID})
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return rems, nil
}

// EndOfTomorrow is midnight at the start of the day after tomorrow.
func EndOfTomorrow(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+2, 0, 0, 0, 0, now.Location())
}

// clock is the current time at the precision the stores keep.
func (s *Service) clock() time.Time {
	return s.now().Truncate(time.Second)
}

func (s *Service) mutate(ctx context.Context, ownerID, id int64, fn func(*models.Reminder, time.Time) error) (*models.Reminder, error) {
	rem, err := s.store.Update(ctx, id, ownerID, func(r *models.Reminder) error {
		return fn(r, s.clock())
	})
	if err != nil {
		return nil, storeError(err, id)
	}
	return rem, nil
}

func storeError(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(id)
	}
	var re *apperrors.ReminderError
	if errors.As(err, &re) {
		return err
	}
	return apperrors.NewInternal(err)
}

func validateText(text, recurrenceText string) error {
	if text == "" {
		return apperrors.NewValidation("reminder text is empty")
	}
	if recurrenceText == "" {
		return apperrors.NewValidation("recurrence text is empty")
	}
	return nil
}
