package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/service"
)

// Writer exports result rows to the results tab of a spreadsheet.
type Writer struct {
	api           ValuesAPI
	logger        *slog.Logger
	config        Config
	spreadsheetID string
	mu            sync.Mutex
}

// NewWriter creates a Google Sheets result writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	api, err := NewGoogleValuesAPI(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewWriterWithAPI(api, config, logger), nil
}

// NewWriterWithAPI creates a writer on an existing API client.
func NewWriterWithAPI(api ValuesAPI, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		api:           api,
		config:        config,
		logger:        logger,
		spreadsheetID: config.SpreadsheetID,
	}
}

// SpreadsheetID returns the target spreadsheet, which is known after the first write
// when the writer had to create it.
func (w *Writer) SpreadsheetID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spreadsheetID
}

// WriteResults implements service.ResultWriter. The results tab is replaced.
func (w *Writer) WriteResults(ctx context.Context, rows []model.ResultRow) error {
	w.logger.Info("starting results export", "rows", len(rows))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if err := w.api.EnsureSheet(ctx, spreadsheetID, w.config.ResultsSheet); err != nil {
		return fmt.Errorf("failed to prepare sheet: %w", err)
	}

	if err := w.api.Clear(ctx, spreadsheetID, w.config.ResultsSheet); err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := prepareResultData(rows)

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		if err := w.api.FormatHeader(ctx, spreadsheetID, w.config.ResultsSheet, len(model.ResultColumns)); err != nil {
			// Formatting is cosmetic.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("results export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.spreadsheetID != "" {
		return w.spreadsheetID, nil
	}

	id, err := w.api.CreateSpreadsheet(ctx, w.config.SpreadsheetName, w.config.TimeZone,
		[]string{w.config.ResultsSheet, w.config.FeedbackSheet})
	if err != nil {
		return "", err
	}

	w.logger.Info("created new spreadsheet", "id", id)
	w.spreadsheetID = id
	return id, nil
}

// prepareResultData lays out the header and one line per row.
func prepareResultData(rows []model.ResultRow) [][]any {
	values := make([][]any, 0, len(rows)+1)

	header := make([]any, len(model.ResultColumns))
	for i, col := range model.ResultColumns {
		header[i] = col
	}
	values = append(values, header)

	for _, row := range rows {
		values = append(values, row.Values())
	}
	return values
}

// writeData writes values in batches to stay under API request limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	batchSize := w.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(values)
	}

	for i := 0; i < len(values); i += batchSize {
		end := min(i+batchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("%s!A%d", w.config.ResultsSheet, i+1)
		if err := w.api.Update(ctx, spreadsheetID, rangeStr, batch); err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}
