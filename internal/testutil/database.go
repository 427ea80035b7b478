// Package testutil provides test utilities shared across packages: migrated in-memory
// feedback stores and fluent builders for feedback fixtures.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Veraticus/weightbot/internal/feedback"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/storage"
)

// TestDB is an in-memory SQLite feedback backend with the store built on it.
type TestDB struct {
	Storage *storage.SQLiteStorage
	Store   *feedback.Store
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Logger         *slog.Logger
	Entries        []model.FeedbackEntry
	SkipMigrations bool
}

// SetupTestStore creates a migrated in-memory database seeded with entries.
//
// Example:
//
//	db := testutil.SetupTestStore(t,
//		testutil.NewEntry("A1-01").InCategory(model.CategoryKettle).Measured(1.44, 1.6).Build(),
//	)
func SetupTestStore(t *testing.T, entries ...model.FeedbackEntry) *TestDB {
	t.Helper()
	return SetupTestStoreWithOptions(t, TestDBOptions{Entries: entries})
}

// SetupTestStoreWithOptions creates a test database with custom options. Cleanup is
// registered on t.
func SetupTestStoreWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	db, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for _, entry := range opts.Entries {
		if err := db.UpsertFeedback(ctx, entry); err != nil {
			t.Fatalf("failed to seed feedback %q: %v", entry.OptionKey, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, db); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &TestDB{
		Storage: db,
		Store:   feedback.NewStore(db, logger),
		t:       t,
	}
}

// MustLoad returns the stored feedback or fails the test.
func (db *TestDB) MustLoad() model.FeedbackSet {
	db.t.Helper()
	set, err := db.Storage.LoadFeedback(context.Background())
	if err != nil {
		db.t.Fatalf("failed to load feedback: %v", err)
	}
	return set
}
