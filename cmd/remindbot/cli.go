package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/hray3182/RemindLine/internal/ai"
	"github.com/hray3182/RemindLine/internal/bot"
	"github.com/hray3182/RemindLine/internal/config"
	"github.com/hray3182/RemindLine/internal/database"
	"github.com/hray3182/RemindLine/internal/format"
	"github.com/hray3182/RemindLine/internal/recurrence"
	"github.com/hray3182/RemindLine/internal/reminder"
	"github.com/hray3182/RemindLine/internal/repository"
	"github.com/hray3182/RemindLine/internal/rrule"
	"github.com/hray3182/RemindLine/internal/scheduler"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config, log logrus.FieldLogger) *cli.App {
	app := &cli.App{
		Name:    "remindbot",
		Usage:   "Telegram bot for recurring reminders",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(cfg, log),
			migrateCmd(cfg, log),
			previewCmd(cfg, log),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func serveCmd(cfg *config.Config, log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the Telegram bot",
		Action: func(c *cli.Context) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			adapter := newAdapter(cfg, log)
			svc := reminder.NewService(store, adapter)

			b, err := bot.New(cfg.TelegramToken, svc, adapter, log)
			if err != nil {
				return err
			}

			if cfg.DigestEnabled {
				at, err := cfg.DigestClock()
				if err != nil {
					return err
				}
				sched := scheduler.New(b.API(), svc, cfg.DigestChats, at, log)
				go sched.Start(ctx)
			}

			log.Info("Starting bot...")
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot error: %w", err)
			}
			log.Info("Shutting down...")
			return nil
		},
	}
}

func migrateCmd(cfg *config.Config, log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the reminder schema",
		Action: func(c *cli.Context) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			switch cfg.StorageDriver {
			case config.DriverPostgres:
				db, err := database.New(c.Context, cfg.DatabaseURI)
				if err != nil {
					return err
				}
				defer db.Close()
				applied, err := db.Migrate(c.Context)
				if err != nil {
					return err
				}
				for _, name := range applied {
					fmt.Fprintf(c.App.Writer, "applied %s\n", name)
				}
				if len(applied) == 0 {
					fmt.Fprintln(c.App.Writer, "schema is up to date")
				}
			default:
				db, err := database.OpenSQLite(cfg.SQLitePath)
				if err != nil {
					return err
				}
				defer db.Close()
				version, err := database.SQLiteUserVersion(db)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "%s at schema version %d\n", cfg.SQLitePath, version)
			}
			log.WithField("driver", cfg.StorageDriver).Debug("Migrations complete")
			return nil
		},
	}
}

func previewCmd(cfg *config.Config, log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Show how recurrence text is understood, without saving anything",
		ArgsUsage: "<recurrence text>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 5, Usage: "Number of upcoming occurrences to show"},
		},
		Action: func(c *cli.Context) error {
			text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if text == "" {
				return errors.New("recurrence text is required")
			}

			now := time.Now()
			d, err := newAdapter(cfg, log).Derive(c.Context, text, now, now)
			if err != nil {
				return err
			}

			var upcoming []time.Time
			if d.Kind == recurrence.KindRecurring {
				upcoming, err = rrule.NextOccurrences(d.Rule, d.Anchor, now, c.Int("count"))
				if err != nil {
					return err
				}
			}
			fmt.Fprintln(c.App.Writer, format.Preview(d, upcoming))
			return nil
		},
	}
}

// openStore opens the configured backend and returns a close func.
func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (repository.Store, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, nil, err
		}
		applied, err := db.Migrate(ctx)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.WithField("applied", len(applied)).Info("Connected to PostgreSQL")
		return repository.NewReminderRepository(db), db.Close, nil
	default:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("Opened SQLite database")
		return repository.NewSQLiteReminderRepository(db), func() { _ = db.Close() }, nil
	}
}

// newAdapter builds the recurrence adapter, with the AI interpreter as a
// fallback when configured.
func newAdapter(cfg *config.Config, log logrus.FieldLogger) *recurrence.Adapter {
	if !cfg.AIEnabled() {
		log.Debug("AI client not configured, using built-in parser only")
		return recurrence.NewDefaultAdapter()
	}
	log.WithField("model", cfg.AIModel).Info("AI fallback parser enabled")
	return recurrence.NewDefaultAdapter(ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel))
}
