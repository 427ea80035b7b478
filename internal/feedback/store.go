package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/service"
)

// Store is the feedback accessor used by the estimator and the user-facing layers.
// Reads never fail: an unavailable backend reads as an empty store.
type Store struct {
	backend service.FeedbackBackend
	logger  *slog.Logger
	now     func() time.Time
	retry   service.RetryOptions
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetryOptions overrides the retry policy used by Update.
func WithRetryOptions(opts service.RetryOptions) Option {
	return func(s *Store) { s.retry = opts }
}

// NewStore wraps backend.
func NewStore(backend service.FeedbackBackend, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		retry: service.RetryOptions{
			MaxAttempts:  5,
			InitialDelay: 20 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAll returns every entry. Storage failures are logged and read as an empty set.
func (s *Store) LoadAll(ctx context.Context) model.FeedbackSet {
	set, err := s.backend.LoadFeedback(ctx)
	if err != nil {
		s.logger.Warn("feedback store unavailable, using empty history", "error", err)
		return model.NewFeedbackSet()
	}
	if set.Entries == nil {
		set.Entries = make(map[string]model.FeedbackEntry)
	}
	return set
}

// SaveAll replaces the stored entries with set. The error is for the user-facing
// layer to report; estimation never depends on it.
func (s *Store) SaveAll(ctx context.Context, set model.FeedbackSet) error {
	if err := s.backend.SaveFeedback(ctx, set); err != nil {
		s.logger.Warn("failed to save feedback", "entries", set.Len(), "error", err)
		return err
	}
	return nil
}

// RecordFeedback stores the measured weight for optionKey and returns the new entry.
func (s *Store) RecordFeedback(ctx context.Context, optionKey string, predicted, actual float64, category model.Category) (model.FeedbackEntry, error) {
	entry, err := NewEntry(optionKey, predicted, actual, category, s.now())
	if err != nil {
		return model.FeedbackEntry{}, err
	}

	// Only a conflicting concurrent write is worth repeating.
	err = common.WithRetry(ctx, func() error {
		err := s.backend.UpsertFeedback(ctx, entry)
		if err != nil && !errors.Is(err, common.ErrConflict) {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		return err
	}, s.retry)
	if err != nil {
		s.logger.Warn("failed to record feedback", "option_key", entry.OptionKey, "error", err)
		return model.FeedbackEntry{}, fmt.Errorf("failed to record feedback for %s: %w", entry.OptionKey, err)
	}

	s.logger.Info("recorded feedback",
		"option_key", entry.OptionKey,
		"category", entry.Category,
		"delta", entry.Delta)

	return entry, nil
}

// Update applies fn to a fresh snapshot and saves it, reloading and retrying when
// another writer got there first.
func (s *Store) Update(ctx context.Context, fn func(set *model.FeedbackSet) error) error {
	return common.WithRetry(ctx, func() error {
		set, err := s.backend.LoadFeedback(ctx)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		if set.Entries == nil {
			set.Entries = make(map[string]model.FeedbackEntry)
		}
		if err := fn(&set); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		return s.backend.SaveFeedback(ctx, set)
	}, s.retry)
}

// Deltas returns the per-category corrections of the current store contents.
func (s *Store) Deltas(ctx context.Context) DeltaTable {
	return NewDeltaTable(s.LoadAll(ctx))
}

// Reset deletes every entry.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.backend.ResetFeedback(ctx); err != nil {
		return fmt.Errorf("failed to reset feedback: %w", err)
	}
	s.logger.Info("feedback store reset")
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
