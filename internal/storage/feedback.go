package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/model"
)

// LoadFeedback implements service.FeedbackBackend.
func (s *SQLiteStorage) LoadFeedback(ctx context.Context) (model.FeedbackSet, error) {
	if err := validateContext(ctx); err != nil {
		return model.FeedbackSet{}, err
	}

	set := model.NewFeedbackSet()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		revision, err := s.revisionTx(ctx, tx)
		if err != nil {
			return err
		}
		set.Revision = revision

		entries, err := s.queryFeedbackTx(ctx, tx, `
			SELECT option_key, category, predicted, actual, delta, recorded_at
			FROM feedback
			ORDER BY option_key`)
		if err != nil {
			return err
		}
		for _, e := range entries {
			set.Entries[e.OptionKey] = e
		}
		return nil
	})
	if err != nil {
		return model.FeedbackSet{}, err
	}
	return set, nil
}

// SaveFeedback implements service.FeedbackBackend. The stored entries are replaced by
// set when set.Revision is still current.
func (s *SQLiteStorage) SaveFeedback(ctx context.Context, set model.FeedbackSet) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSet(set); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := s.revisionTx(ctx, tx)
		if err != nil {
			return err
		}
		if current != set.Revision {
			return common.NewConflictError("feedback revision %d, stored %d", set.Revision, current)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM feedback`); err != nil {
			return fmt.Errorf("failed to clear feedback: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO feedback (option_key, category, predicted, actual, delta, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for key, e := range set.Entries {
			if _, err := stmt.ExecContext(ctx, key, string(e.Category), e.Predicted, e.Actual, e.Delta, storedTime(e.Timestamp)); err != nil {
				return fmt.Errorf("failed to save feedback %s: %w", key, err)
			}
		}

		return s.bumpRevisionTx(ctx, tx)
	})
}

// UpsertFeedback implements service.FeedbackBackend. The previous entry for the same
// option is replaced and the submission is appended to the history table.
func (s *SQLiteStorage) UpsertFeedback(ctx context.Context, entry model.FeedbackEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	at := storedTime(entry.Timestamp)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO feedback (option_key, category, predicted, actual, delta, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(option_key) DO UPDATE SET
				category = excluded.category,
				predicted = excluded.predicted,
				actual = excluded.actual,
				delta = excluded.delta,
				recorded_at = excluded.recorded_at`,
			entry.OptionKey, string(entry.Category), entry.Predicted, entry.Actual, entry.Delta, at)
		if err != nil {
			return fmt.Errorf("failed to upsert feedback: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO feedback_history (option_key, category, predicted, actual, delta, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			entry.OptionKey, string(entry.Category), entry.Predicted, entry.Actual, entry.Delta, at)
		if err != nil {
			return fmt.Errorf("failed to record feedback history: %w", err)
		}

		return s.bumpRevisionTx(ctx, tx)
	})
}

// ResetFeedback implements service.FeedbackBackend. History is kept.
func (s *SQLiteStorage) ResetFeedback(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM feedback`); err != nil {
			return fmt.Errorf("failed to reset feedback: %w", err)
		}
		return s.bumpRevisionTx(ctx, tx)
	})
}

// GetFeedbackHistory returns every submission for optionKey, oldest first.
func (s *SQLiteStorage) GetFeedbackHistory(ctx context.Context, optionKey string) ([]model.FeedbackEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(optionKey, "optionKey"); err != nil {
		return nil, err
	}

	return s.queryFeedbackTx(ctx, s.db, `
		SELECT option_key, category, predicted, actual, delta, recorded_at
		FROM feedback_history
		WHERE option_key = ?
		ORDER BY id`, optionKey)
}

func (s *SQLiteStorage) queryFeedbackTx(ctx context.Context, q queryable, query string, args ...any) ([]model.FeedbackEntry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.FeedbackEntry
	for rows.Next() {
		var e model.FeedbackEntry
		var category string
		if err := rows.Scan(&e.OptionKey, &category, &e.Predicted, &e.Actual, &e.Delta, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		e.Category = model.Category(category)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) revisionTx(ctx context.Context, q queryable) (int64, error) {
	var revision int64
	if err := q.QueryRowContext(ctx, `SELECT revision FROM feedback_meta WHERE id = 1`).Scan(&revision); err != nil {
		return 0, fmt.Errorf("failed to read feedback revision: %w", err)
	}
	return revision, nil
}

func (s *SQLiteStorage) bumpRevisionTx(ctx context.Context, q queryable) error {
	if _, err := q.ExecContext(ctx, `UPDATE feedback_meta SET revision = revision + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to bump feedback revision: %w", err)
	}
	return nil
}

func storedTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
