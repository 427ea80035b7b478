package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/model"
)

// Feedback tab layout: B1 holds the revision, row 2 the header and entries start on
// row 3.
const (
	revisionLabel = "revision"
	firstEntryRow = 3
)

var feedbackHeader = []any{"option_key", "category", "predicted", "actual", "delta", "timestamp"}

// FeedbackBackend stores feedback in a spreadsheet tab so a team can share one
// history. Writes from this process are serialized. Writers in other processes are
// detected by re-reading the revision cell immediately before each write; the Sheets
// API has no conditional write, so a write landing between that check and our own
// can still interleave.
type FeedbackBackend struct {
	api           ValuesAPI
	logger        *slog.Logger
	spreadsheetID string
	sheet         string
	mu            sync.Mutex
}

// sheetSnapshot is the decoded tab plus how many rows it occupied.
type sheetSnapshot struct {
	set  model.FeedbackSet
	rows int
}

// NewFeedbackBackend creates a backend on the feedback tab of spreadsheetID.
func NewFeedbackBackend(ctx context.Context, api ValuesAPI, config Config, logger *slog.Logger) (*FeedbackBackend, error) {
	if config.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: sheets.spreadsheet_id", common.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := api.EnsureSheet(ctx, config.SpreadsheetID, config.FeedbackSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare feedback sheet: %w", err)
	}
	return &FeedbackBackend{
		api:           api,
		logger:        logger,
		spreadsheetID: config.SpreadsheetID,
		sheet:         config.FeedbackSheet,
	}, nil
}

// LoadFeedback implements service.FeedbackBackend.
func (b *FeedbackBackend) LoadFeedback(ctx context.Context) (model.FeedbackSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap, err := b.read(ctx)
	return snap.set, err
}

// SaveFeedback implements service.FeedbackBackend.
func (b *FeedbackBackend) SaveFeedback(ctx context.Context, set model.FeedbackSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap, err := b.read(ctx)
	if err != nil {
		return err
	}
	if snap.set.Revision != set.Revision {
		return common.NewConflictError("feedback sheet revision %d, stored %d", set.Revision, snap.set.Revision)
	}
	return b.commit(ctx, snap, set.Entries)
}

// UpsertFeedback implements service.FeedbackBackend.
func (b *FeedbackBackend) UpsertFeedback(ctx context.Context, entry model.FeedbackEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap, err := b.read(ctx)
	if err != nil {
		return err
	}
	entries := snap.set.Clone().Entries
	entries[entry.OptionKey] = entry
	return b.commit(ctx, snap, entries)
}

// ResetFeedback implements service.FeedbackBackend.
func (b *FeedbackBackend) ResetFeedback(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap, err := b.read(ctx)
	if err != nil {
		return err
	}
	return b.commit(ctx, snap, nil)
}

// Close implements service.FeedbackBackend.
func (b *FeedbackBackend) Close() error {
	return nil
}

func (b *FeedbackBackend) read(ctx context.Context) (sheetSnapshot, error) {
	snap := sheetSnapshot{set: model.NewFeedbackSet()}

	values, err := b.api.Get(ctx, b.spreadsheetID, b.sheet+"!A1:F")
	if err != nil {
		return snap, fmt.Errorf("failed to read feedback sheet: %w", err)
	}
	snap.rows = len(values)
	snap.set.Revision = revisionOf(values)

	for i := firstEntryRow - 1; i < len(values); i++ {
		row := values[i]
		key := cellString(row, 0)
		if key == "" {
			continue
		}
		entry := model.FeedbackEntry{
			OptionKey: key,
			Category:  model.Category(cellString(row, 1)),
			Predicted: cellFloatAt(row, 2),
			Actual:    cellFloatAt(row, 3),
			Delta:     cellFloatAt(row, 4),
		}
		if ts := cellString(row, 5); ts != "" {
			if parsed, err := time.ParseInLocation(model.TimestampLayout, ts, time.UTC); err == nil {
				entry.Timestamp = parsed
			} else {
				b.logger.Debug("unparseable feedback timestamp", "row", i+1, "value", ts)
			}
		}
		snap.set.Entries[key] = entry
	}
	return snap, nil
}

func revisionOf(values [][]any) int64 {
	if len(values) == 0 {
		return 0
	}
	return int64(cellFloatAt(values[0], 1))
}

// commit writes entries as the revision after base. The revision cell is checked
// again first so a write from another process since base was read is reported as a
// conflict instead of being overwritten.
func (b *FeedbackBackend) commit(ctx context.Context, base sheetSnapshot, entries map[string]model.FeedbackEntry) error {
	head, err := b.api.Get(ctx, b.spreadsheetID, b.sheet+"!A1:B1")
	if err != nil {
		return fmt.Errorf("failed to read feedback revision: %w", err)
	}
	if current := revisionOf(head); current != base.set.Revision {
		return common.NewConflictError("feedback sheet moved from revision %d to %d", base.set.Revision, current)
	}

	values := make([][]any, 0, len(entries)+2)
	values = append(values, []any{revisionLabel, base.set.Revision + 1}, feedbackHeader)
	for _, e := range (model.FeedbackSet{Entries: entries}).Sorted() {
		values = append(values, []any{
			e.OptionKey,
			string(e.Category),
			e.Predicted,
			e.Actual,
			e.Delta,
			e.Timestamp.UTC().Format(model.TimestampLayout),
		})
	}

	// Overwrite in place, then drop the rows the shorter set no longer covers. A
	// failed update leaves the previous contents readable.
	if err := b.api.Update(ctx, b.spreadsheetID, b.sheet+"!A1", values); err != nil {
		return fmt.Errorf("failed to write feedback sheet: %w", err)
	}
	if base.rows > len(values) {
		stale := fmt.Sprintf("%s!A%d:F%d", b.sheet, len(values)+1, base.rows)
		if err := b.api.Clear(ctx, b.spreadsheetID, stale); err != nil {
			return fmt.Errorf("failed to clear stale feedback rows: %w", err)
		}
	}
	return nil
}

func cellString(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func cellFloatAt(row []any, i int) float64 {
	if i >= len(row) {
		return 0
	}
	return cellFloat(row[i])
}

func cellFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
