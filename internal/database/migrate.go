package database

import (
	"context"
	"embed"
	"fmt"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies pending migrations in filename order and returns the names
// of those it applied.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := migrationFiles()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, filename := range files {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			filename,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + filename)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		// Each migration and its bookkeeping row commit together.
		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			return applied, fmt.Errorf("failed to begin migration %s: %w", filename, err)
		}
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", filename); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to record migration %s: %w", filename, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, fmt.Errorf("failed to commit migration %s: %w", filename, err)
		}
		applied = append(applied, filename)
	}

	return applied, nil
}

func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
