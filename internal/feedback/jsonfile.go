package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/model"
)

// JSONFileBackend stores feedback as a JSON object keyed by option key, the format of
// the legacy feedback_db.json file. Writes go through a temp file and rename so
// readers never see a partial file.
type JSONFileBackend struct {
	path string
	mu   sync.Mutex
}

// fileRecord is one value in the JSON object. ts is seconds since the epoch; RFC 3339
// strings are accepted on read, and so is the key timestamp in place of ts.
type fileRecord struct {
	Timestamp *flexibleTime `json:"timestamp,omitempty"`
	TS        flexibleTime  `json:"ts"`
	Category  string        `json:"category"`
	Predicted float64       `json:"predicted"`
	Actual    float64       `json:"actual"`
	Delta     float64       `json:"delta"`
}

// recordedAt prefers ts and falls back to timestamp.
func (r fileRecord) recordedAt() time.Time {
	if t := time.Time(r.TS); !t.IsZero() || r.Timestamp == nil {
		return t
	}
	return time.Time(*r.Timestamp)
}

// NewJSONFileBackend creates a backend for path. The file is created on first write.
func NewJSONFileBackend(path string) (*JSONFileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: feedback file path", common.ErrMissingConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create feedback directory: %w", err)
	}
	return &JSONFileBackend{path: path}, nil
}

// LoadFeedback implements service.FeedbackBackend.
func (b *JSONFileBackend) LoadFeedback(_ context.Context) (model.FeedbackSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.read()
}

// SaveFeedback implements service.FeedbackBackend.
func (b *JSONFileBackend) SaveFeedback(_ context.Context, set model.FeedbackSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.read()
	if err != nil {
		return err
	}
	if current.Revision != set.Revision {
		return common.NewConflictError("feedback file %s changed since it was read", b.path)
	}
	return b.write(set.Entries)
}

// UpsertFeedback implements service.FeedbackBackend.
func (b *JSONFileBackend) UpsertFeedback(_ context.Context, entry model.FeedbackEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.read()
	if err != nil {
		return err
	}
	current.Entries[entry.OptionKey] = entry
	return b.write(current.Entries)
}

// ResetFeedback implements service.FeedbackBackend.
func (b *JSONFileBackend) ResetFeedback(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.write(map[string]model.FeedbackEntry{})
}

// Close implements service.FeedbackBackend.
func (b *JSONFileBackend) Close() error {
	return nil
}

func (b *JSONFileBackend) read() (model.FeedbackSet, error) {
	set := model.NewFeedbackSet()

	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return set, fmt.Errorf("failed to read feedback file: %w", err)
	}
	set.Revision = revisionOf(data)

	if len(bytes.TrimSpace(data)) == 0 {
		return set, nil
	}

	var records map[string]fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return set, fmt.Errorf("failed to parse feedback file: %w", err)
	}
	for key, rec := range records {
		set.Entries[key] = model.FeedbackEntry{
			OptionKey: key,
			Predicted: rec.Predicted,
			Actual:    rec.Actual,
			Delta:     rec.Delta,
			Category:  model.Category(rec.Category),
			Timestamp: rec.recordedAt(),
		}
	}
	return set, nil
}

func (b *JSONFileBackend) write(entries map[string]model.FeedbackEntry) error {
	records := make(map[string]fileRecord, len(entries))
	for key, entry := range entries {
		records[key] = fileRecord{
			Predicted: entry.Predicted,
			Actual:    entry.Actual,
			Delta:     entry.Delta,
			Category:  string(entry.Category),
			TS:        flexibleTime(entry.Timestamp),
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feedback: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".feedback-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp feedback file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write feedback: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp feedback file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("failed to replace feedback file: %w", err)
	}
	return nil
}

func revisionOf(data []byte) int64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return int64(h.Sum64() & math.MaxInt64)
}

type flexibleTime time.Time

func (t flexibleTime) MarshalJSON() ([]byte, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return []byte("0"), nil
	}
	secs := float64(tt.UnixNano()) / float64(time.Second)
	return []byte(strconv.FormatFloat(secs, 'f', 6, 64)), nil
}

func (t *flexibleTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			parsed, err = time.ParseInLocation(model.TimestampLayout, s, time.Local)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", s, err)
			}
		}
		*t = flexibleTime(parsed)
		return nil
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	if secs == 0 {
		return nil
	}
	whole, frac := math.Modf(secs)
	*t = flexibleTime(time.Unix(int64(whole), int64(frac*float64(time.Second))))
	return nil
}
