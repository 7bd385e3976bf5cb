package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/hray3182/RemindLine/internal/bot/handlers"
	"github.com/hray3182/RemindLine/internal/reminder"
)

// CommandHandler answers a single chat command.
type CommandHandler interface {
	HandleCommand(ctx context.Context, msg *tgbotapi.Message)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers CommandHandler
	log      logrus.FieldLogger
}

func New(token string, reminders *reminder.Service, deriver reminder.Deriver, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:      api,
		handlers: handlers.New(api, reminders, deriver, log),
		log:      log,
	}, nil
}

// API exposes the Telegram client for other senders such as the digest.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

func (b *Bot) Start(ctx context.Context) error {
	b.log.WithField("account", b.api.Self.UserName).Info("Authorized on Telegram")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithField("panic", r).WithField("update_id", update.UpdateID).Error("Recovered from panic while handling update")
		}
	}()

	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	b.handlers.HandleCommand(ctx, update.Message)
}
