package main

import (
	"fmt"
	"os"

	"github.com/hray3182/RemindLine/internal/config"
	"github.com/hray3182/RemindLine/internal/logger"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	app := newCLIApp(cfg, log)
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
