package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	StorageDriver string
	DatabaseURI   string
	SQLitePath    string
	TelegramToken string
	AIAPIKey      string
	AIBaseURL     string
	AIModel       string
	DigestEnabled bool
	DigestTime    string // HH:MM, local time
	DigestChats   []int64
	LogLevel      string
	LogFormat     string
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	digestEnabled, err := strconv.ParseBool(getEnvOrDefault("DIGEST_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIGEST_ENABLED: %w", err)
	}
	chats, err := parseChatIDs(os.Getenv("DIGEST_CHATS"))
	if err != nil {
		return nil, err
	}

	return &Config{
		StorageDriver: strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", DriverSQLite)),
		DatabaseURI:   os.Getenv("DATABASE_URI"),
		SQLitePath:    getEnvOrDefault("SQLITE_PATH", "reminders.db"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIBaseURL:     getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:       getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
		DigestEnabled: digestEnabled,
		DigestTime:    getEnvOrDefault("DIGEST_TIME", "06:00"),
		DigestChats:   chats,
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "text"),
	}, nil
}

// Validate checks the settings needed to store reminders. The bot token is
// checked by the commands that need it.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURI == "" {
			return fmt.Errorf("DATABASE_URI is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.DigestEnabled {
		if _, err := c.DigestClock(); err != nil {
			return err
		}
	}
	return nil
}

// DigestClock returns DIGEST_TIME as an offset from midnight.
func (c *Config) DigestClock() (time.Duration, error) {
	t, err := time.Parse("15:04", c.DigestTime)
	if err != nil {
		return 0, fmt.Errorf("invalid DIGEST_TIME %q, want HH:MM", c.DigestTime)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

func parseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q in DIGEST_CHATS", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
