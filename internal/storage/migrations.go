package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS runs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					label TEXT NOT NULL DEFAULT '',
					recorded_at DATETIME NOT NULL,
					start_date TEXT NOT NULL,
					end_date TEXT NOT NULL,
					current_balance TEXT NOT NULL,
					set_aside TEXT NOT NULL,
					high_low INTEGER NOT NULL DEFAULT 0,
					rule_count INTEGER NOT NULL DEFAULT 0,
					final_balance TEXT NOT NULL,
					lowest_balance TEXT NOT NULL,
					lowest_date TEXT NOT NULL,
					below_set_aside TEXT,
					below_zero TEXT
				)`,
				`CREATE INDEX idx_runs_recorded_at ON runs(recorded_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Track free-to-spend per run",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE runs ADD COLUMN free_to_spend TEXT NOT NULL DEFAULT '0'`); err != nil {
				return fmt.Errorf("failed to add free_to_spend column: %w", err)
			}
			// Older rows can derive it from what they already recorded.
			if _, err := tx.Exec(`UPDATE runs SET free_to_spend = printf('%.2f', CAST(lowest_balance AS REAL) - CAST(set_aside AS REAL))`); err != nil {
				return fmt.Errorf("failed to backfill free_to_spend: %w", err)
			}
			return nil
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
