package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/weightbot/internal/classification"
	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/config"
	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/feedback"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/report"
	"github.com/Veraticus/weightbot/internal/service"
	"github.com/Veraticus/weightbot/internal/sheets"
	"github.com/Veraticus/weightbot/internal/storage"
)

// historyReader is implemented by the database backends.
type historyReader interface {
	GetFeedbackHistory(ctx context.Context, optionKey string) ([]model.FeedbackEntry, error)
}

// loadConfig reads the typed configuration from viper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, common.NewUserError("invalid configuration", err)
	}
	return cfg, nil
}

// newPipeline builds the estimation pipeline from configuration.
func newPipeline(cfg *config.Config) *engine.Pipeline {
	classifier := classification.NewDefaultClassifier()
	for category, words := range cfg.Classifier.Keywords {
		classifier.AddKeywords(category, words...)
	}
	slog.Debug("Classifier ready", "keywords", classifier.KeywordCount())

	return engine.NewPipeline(engine.NewEstimator(), classifier,
		engine.WithExtraConstant(cfg.Estimator.ExtraConstant),
		engine.WithDefaultAllowance(cfg.Estimator.AllowanceCm),
		engine.WithLogger(slog.Default()),
	)
}

// initFeedbackStore opens the configured feedback backend. The returned store must be
// closed by the caller.
func initFeedbackStore(ctx context.Context, cfg *config.Config) (*feedback.Store, error) {
	backend, err := openFeedbackBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return feedback.NewStore(backend, slog.Default()), nil
}

// openEstimationStore opens the configured feedback store for read paths. When the
// backend cannot be opened the failure is logged and an empty in-memory store is used,
// so estimates are produced without corrections.
func openEstimationStore(ctx context.Context, cfg *config.Config) *feedback.Store {
	store, err := initFeedbackStore(ctx, cfg)
	if err != nil {
		slog.Warn("Feedback store unavailable, continuing without stored corrections",
			"backend", cfg.Feedback.Backend, "error", err)
		return feedback.NewStore(feedback.NewMemoryBackend(), slog.Default())
	}
	return store
}

func openFeedbackBackend(ctx context.Context, cfg *config.Config) (service.FeedbackBackend, error) {
	switch cfg.Feedback.Backend {
	case config.BackendSQLite:
		store, err := storage.NewSQLiteStorage(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store, nil

	case config.BackendJSON:
		return feedback.NewJSONFileBackend(cfg.Feedback.JSONPath)

	case config.BackendPostgres:
		store, err := storage.NewPostgresStorage(cfg.Feedback.PostgresDSN,
			cfg.Feedback.PostgresMaxConn, cfg.Feedback.PostgresMaxIdleConn)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store, nil

	case config.BackendSheets:
		sheetsConfig, err := config.LoadSheetsConfig()
		if err != nil {
			return nil, common.NewUserError("Google Sheets is not configured", err)
		}
		api, err := sheets.NewGoogleValuesAPI(ctx, *sheetsConfig)
		if err != nil {
			return nil, err
		}
		return sheets.NewFeedbackBackend(ctx, api, *sheetsConfig, slog.Default())

	default:
		return nil, fmt.Errorf("%w: feedback backend %q", common.ErrInvalidConfig, cfg.Feedback.Backend)
	}
}

// writeRowsFile writes rows to path as xlsx or csv depending on the extension.
func writeRowsFile(path string, rows []model.ResultRow) (err error) {
	var write func(io.Writer, []model.ResultRow) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		write = report.WriteXLSX
	case ".csv":
		write = report.WriteCSV
	default:
		return common.NewUserError(fmt.Sprintf("unsupported output format %q (use .xlsx or .csv)", filepath.Ext(path)), nil)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return write(f, rows)
}

// collectRows flattens batch results in input order, skipping failures.
func collectRows(summary *engine.BatchSummary) []model.ResultRow {
	rows := make([]model.ResultRow, 0, summary.TotalOptions)
	for _, r := range summary.Results {
		if r.Error == nil {
			rows = append(rows, r.Output.Rows...)
		}
	}
	return rows
}

func printLine(w io.Writer, s string) {
	if _, err := fmt.Fprintln(w, s); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}
