package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteSchemaVersion is the latest SQLite schema version.
// Bump this when adding migrations.
const SQLiteSchemaVersion = 1

// OpenSQLite opens (creating if needed) the SQLite database at path and
// applies migrations. The pool is limited to one connection so every
// transaction is serialized.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(db *sql.DB) error {
	version, err := SQLiteUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS reminders (
		  id               INTEGER PRIMARY KEY AUTOINCREMENT,
		  user_id          INTEGER NOT NULL,
		  text             TEXT NOT NULL,
		  recurrence_text  TEXT NOT NULL,
		  dtstart          INTEGER NOT NULL,
		  rrule            TEXT NOT NULL DEFAULT '',
		  next_remind_date INTEGER NOT NULL,
		  finished         INTEGER NOT NULL DEFAULT 0,
		  days_in_advance  INTEGER NOT NULL DEFAULT 14,
		  created_at       INTEGER NOT NULL,
		  updated_at       INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reminders_user_id ON reminders(user_id);
		CREATE INDEX IF NOT EXISTS idx_reminders_next_remind_date ON reminders(next_remind_date);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", 1)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}

	return nil
}

// SQLiteUserVersion returns the current schema version (user_version pragma).
func SQLiteUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}
