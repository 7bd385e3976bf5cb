package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a logger writing to stdout. format is "json" or "text".
func New(level, format string) (*logrus.Logger, error) {
	return NewWithOutput(os.Stdout, level, format)
}

func NewWithOutput(out io.Writer, level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = out

	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(lvl)

	return log, nil
}
