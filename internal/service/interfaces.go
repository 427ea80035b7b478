// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/weightbot/internal/model"
)

// FeedbackBackend is the contract for a feedback persistence medium.
// Implementations own their locking discipline: UpsertFeedback must be an atomic
// read-modify-write, and SaveFeedback must reject a set whose Revision is stale.
type FeedbackBackend interface {
	LoadFeedback(ctx context.Context) (model.FeedbackSet, error)
	SaveFeedback(ctx context.Context, set model.FeedbackSet) error
	UpsertFeedback(ctx context.Context, entry model.FeedbackEntry) error
	ResetFeedback(ctx context.Context) error
	Close() error
}

// Migrator is implemented by backends with a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// DeltaSource supplies the bounded per-category feedback correction.
type DeltaSource interface {
	AverageDelta(category model.Category) float64
}

// ResultWriter exports estimate rows to an external destination.
type ResultWriter interface {
	WriteResults(ctx context.Context, rows []model.ResultRow) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
