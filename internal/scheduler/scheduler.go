package scheduler

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/hray3182/RemindLine/internal/format"
	"github.com/hray3182/RemindLine/internal/models"
)

const digestHeader = "Here are your today's reminders:"

// Sender is the part of *tgbotapi.BotAPI the scheduler uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DueLister is satisfied by *reminder.Service.
type DueLister interface {
	DueSoon(ctx context.Context, ownerID int64) ([]*models.Reminder, error)
}

// Scheduler sends each configured chat its due-soon list once a day at a
// fixed local time.
type Scheduler struct {
	api           Sender
	reminders     DueLister
	chats         []int64
	at            time.Duration // offset from local midnight
	checkInterval time.Duration
	log           logrus.FieldLogger
	now           func() time.Time

	lastSent time.Time // local midnight of the last digest day
	notifyCh chan struct{}
}

func New(api Sender, reminders DueLister, chats []int64, at time.Duration, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		api:           api,
		reminders:     reminders,
		chats:         chats,
		at:            at,
		checkInterval: 1 * time.Minute,
		log:           log,
		now:           time.Now,
		notifyCh:      make(chan struct{}, 1),
	}
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
		// Channel already has a pending notification, skip
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.log.WithField("chats", len(s.chats)).Info("Digest scheduler started")
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	// Skip today if the digest time has already passed at startup.
	now := s.now()
	if !now.Before(digestTime(now, s.at)) {
		s.lastSent = midnight(now)
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Digest scheduler stopped")
			return
		case <-ticker.C:
			s.check(ctx)
		case <-s.notifyCh:
			s.check(ctx)
		}
	}
}

// check sends the digest if today's slot has been reached and not yet used.
func (s *Scheduler) check(ctx context.Context) {
	now := s.now()
	today := midnight(now)
	if !today.After(s.lastSent) || now.Before(digestTime(now, s.at)) {
		return
	}
	s.lastSent = today
	s.SendDigest(ctx)
}

// SendDigest sends the due-soon list to every configured chat.
func (s *Scheduler) SendDigest(ctx context.Context) {
	for _, chatID := range s.chats {
		rems, err := s.reminders.DueSoon(ctx, chatID)
		if err != nil {
			s.log.WithError(err).WithField("chat_id", chatID).Error("Failed to list reminders for digest")
			continue
		}
		if len(rems) == 0 {
			continue
		}

		msg := tgbotapi.NewMessage(chatID, format.List(digestHeader, rems))
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := s.api.Send(msg); err != nil {
			s.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send digest")
			continue
		}
		s.log.WithFields(logrus.Fields{"chat_id": chatID, "reminders": len(rems)}).Info("Sent digest")
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func digestTime(t time.Time, at time.Duration) time.Time {
	return midnight(t).Add(at)
}
