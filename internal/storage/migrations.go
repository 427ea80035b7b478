package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the schema version this build reads and writes.
const ExpectedSchemaVersion = 2

// Migration is one schema step. Version is stored in PRAGMA user_version once
// every statement has run in the same transaction.
type Migration struct {
	Description string
	Statements  []string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial feedback schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS feedback (
				option_key TEXT PRIMARY KEY,
				category TEXT NOT NULL,
				predicted REAL NOT NULL,
				actual REAL NOT NULL,
				delta REAL NOT NULL,
				recorded_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_feedback_category ON feedback(category)`,
			// Single row counter bumped by every write, used for optimistic saves.
			`CREATE TABLE IF NOT EXISTS feedback_meta (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				revision INTEGER NOT NULL DEFAULT 0
			)`,
			`INSERT OR IGNORE INTO feedback_meta (id, revision) VALUES (1, 0)`,
		},
	},
	{
		Version:     2,
		Description: "Add feedback history for auditing",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS feedback_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				option_key TEXT NOT NULL,
				category TEXT NOT NULL,
				predicted REAL NOT NULL,
				actual REAL NOT NULL,
				delta REAL NOT NULL,
				recorded_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_feedback_history_option_key ON feedback_history(option_key)`,
		},
	},
}

// Migrate brings the database up to ExpectedSchemaVersion. Each pending migration
// commits on its own, so an interrupted run resumes where it stopped.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	current, err = s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current != ExpectedSchemaVersion {
		return fmt.Errorf("database schema is at version %d, this build needs %d", current, ExpectedSchemaVersion)
	}
	return nil
}

func (s *SQLiteStorage) apply(ctx context.Context, m Migration) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range m.Statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		// PRAGMA does not accept bound parameters.
		_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version))
		return err
	})
}

// SchemaVersion returns the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
