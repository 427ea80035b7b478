package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStorage keeps feedback in PostgreSQL so several workstations can share one
// history.
type PostgresStorage struct {
	db *sqlx.DB
}

// feedbackRow is the column mapping for the feedback tables.
type feedbackRow struct {
	RecordedAt time.Time `db:"recorded_at"`
	OptionKey  string    `db:"option_key"`
	Category   string    `db:"category"`
	Predicted  float64   `db:"predicted"`
	Actual     float64   `db:"actual"`
	Delta      float64   `db:"delta"`
}

func (r feedbackRow) entry() model.FeedbackEntry {
	return model.FeedbackEntry{
		OptionKey: r.OptionKey,
		Category:  model.Category(r.Category),
		Predicted: r.Predicted,
		Actual:    r.Actual,
		Delta:     r.Delta,
		Timestamp: r.RecordedAt,
	}
}

func newFeedbackRow(key string, e model.FeedbackEntry) feedbackRow {
	return feedbackRow{
		OptionKey:  key,
		Category:   string(e.Category),
		Predicted:  e.Predicted,
		Actual:     e.Actual,
		Delta:      e.Delta,
		RecordedAt: storedTime(e.Timestamp),
	}
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS feedback (
		option_key TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		predicted DOUBLE PRECISION NOT NULL,
		actual DOUBLE PRECISION NOT NULL,
		delta DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_category ON feedback(category)`,
	`CREATE TABLE IF NOT EXISTS feedback_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		revision BIGINT NOT NULL DEFAULT 0
	)`,
	`INSERT INTO feedback_meta (id, revision) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS feedback_history (
		id BIGSERIAL PRIMARY KEY,
		option_key TEXT NOT NULL,
		category TEXT NOT NULL,
		predicted DOUBLE PRECISION NOT NULL,
		actual DOUBLE PRECISION NOT NULL,
		delta DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_history_option_key ON feedback_history(option_key)`,
}

// NewPostgresStorage connects to dsn.
func NewPostgresStorage(dsn string, maxConn, maxIdleConn int) (*PostgresStorage, error) {
	if err := validateString(dsn, "dsn"); err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %w", common.ErrStorageUnavailable, err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return &PostgresStorage{db: db}, nil
}

// Migrate creates the feedback tables when missing.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for _, stmt := range postgresSchema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	return p.db.Close()
}

// LoadFeedback implements service.FeedbackBackend.
func (p *PostgresStorage) LoadFeedback(ctx context.Context) (model.FeedbackSet, error) {
	if err := validateContext(ctx); err != nil {
		return model.FeedbackSet{}, err
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.FeedbackSet{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	set := model.NewFeedbackSet()
	if err := tx.GetContext(ctx, &set.Revision, `SELECT revision FROM feedback_meta WHERE id = 1`); err != nil {
		return model.FeedbackSet{}, fmt.Errorf("failed to read feedback revision: %w", err)
	}

	var rows []feedbackRow
	if err := tx.SelectContext(ctx, &rows, `
		SELECT option_key, category, predicted, actual, delta, recorded_at
		FROM feedback
		ORDER BY option_key`); err != nil {
		return model.FeedbackSet{}, fmt.Errorf("failed to query feedback: %w", err)
	}
	for _, r := range rows {
		set.Entries[r.OptionKey] = r.entry()
	}
	return set, tx.Commit()
}

// SaveFeedback implements service.FeedbackBackend.
func (p *PostgresStorage) SaveFeedback(ctx context.Context, set model.FeedbackSet) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSet(set); err != nil {
		return err
	}

	return p.withTx(ctx, func(tx *sqlx.Tx) error {
		var current int64
		if err := tx.GetContext(ctx, &current, `SELECT revision FROM feedback_meta WHERE id = 1 FOR UPDATE`); err != nil {
			return fmt.Errorf("failed to read feedback revision: %w", err)
		}
		if current != set.Revision {
			return common.NewConflictError("feedback revision %d, stored %d", set.Revision, current)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM feedback`); err != nil {
			return fmt.Errorf("failed to clear feedback: %w", err)
		}
		for key, e := range set.Entries {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO feedback (option_key, category, predicted, actual, delta, recorded_at)
				VALUES (:option_key, :category, :predicted, :actual, :delta, :recorded_at)`,
				newFeedbackRow(key, e)); err != nil {
				return fmt.Errorf("failed to save feedback %s: %w", key, err)
			}
		}
		return p.bumpRevision(ctx, tx)
	})
}

// UpsertFeedback implements service.FeedbackBackend.
func (p *PostgresStorage) UpsertFeedback(ctx context.Context, entry model.FeedbackEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	row := newFeedbackRow(entry.OptionKey, entry)
	return p.withTx(ctx, func(tx *sqlx.Tx) error {
		// Row lock on the counter serializes concurrent writers.
		if _, err := tx.ExecContext(ctx, `SELECT revision FROM feedback_meta WHERE id = 1 FOR UPDATE`); err != nil {
			return fmt.Errorf("failed to lock feedback: %w", err)
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO feedback (option_key, category, predicted, actual, delta, recorded_at)
			VALUES (:option_key, :category, :predicted, :actual, :delta, :recorded_at)
			ON CONFLICT (option_key) DO UPDATE SET
				category = EXCLUDED.category,
				predicted = EXCLUDED.predicted,
				actual = EXCLUDED.actual,
				delta = EXCLUDED.delta,
				recorded_at = EXCLUDED.recorded_at`, row); err != nil {
			return fmt.Errorf("failed to upsert feedback: %w", err)
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO feedback_history (option_key, category, predicted, actual, delta, recorded_at)
			VALUES (:option_key, :category, :predicted, :actual, :delta, :recorded_at)`, row); err != nil {
			return fmt.Errorf("failed to record feedback history: %w", err)
		}
		return p.bumpRevision(ctx, tx)
	})
}

// ResetFeedback implements service.FeedbackBackend.
func (p *PostgresStorage) ResetFeedback(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return p.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM feedback`); err != nil {
			return fmt.Errorf("failed to reset feedback: %w", err)
		}
		return p.bumpRevision(ctx, tx)
	})
}

// GetFeedbackHistory returns every submission for optionKey, oldest first.
func (p *PostgresStorage) GetFeedbackHistory(ctx context.Context, optionKey string) ([]model.FeedbackEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(optionKey, "optionKey"); err != nil {
		return nil, err
	}

	var rows []feedbackRow
	if err := p.db.SelectContext(ctx, &rows, `
		SELECT option_key, category, predicted, actual, delta, recorded_at
		FROM feedback_history
		WHERE option_key = $1
		ORDER BY id`, optionKey); err != nil {
		return nil, fmt.Errorf("failed to query feedback history: %w", err)
	}
	entries := make([]model.FeedbackEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry()
	}
	return entries, nil
}

func (p *PostgresStorage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresStorage) bumpRevision(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, `UPDATE feedback_meta SET revision = revision + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to bump feedback revision: %w", err)
	}
	return nil
}
