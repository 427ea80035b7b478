package feedback

import (
	"context"
	"sync"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/model"
)

// MemoryBackend keeps feedback in process memory.
type MemoryBackend struct {
	entries  map[string]model.FeedbackEntry
	revision int64
	mu       sync.Mutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]model.FeedbackEntry)}
}

// LoadFeedback implements service.FeedbackBackend.
func (m *MemoryBackend) LoadFeedback(_ context.Context) (model.FeedbackSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return model.FeedbackSet{Entries: m.copyEntries(), Revision: m.revision}, nil
}

// SaveFeedback implements service.FeedbackBackend.
func (m *MemoryBackend) SaveFeedback(_ context.Context, set model.FeedbackSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if set.Revision != m.revision {
		return common.NewConflictError("feedback revision %d, stored %d", set.Revision, m.revision)
	}
	m.entries = make(map[string]model.FeedbackEntry, len(set.Entries))
	for k, v := range set.Entries {
		v.OptionKey = k
		m.entries[k] = v
	}
	m.revision++
	return nil
}

// UpsertFeedback implements service.FeedbackBackend.
func (m *MemoryBackend) UpsertFeedback(_ context.Context, entry model.FeedbackEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[entry.OptionKey] = entry
	m.revision++
	return nil
}

// ResetFeedback implements service.FeedbackBackend.
func (m *MemoryBackend) ResetFeedback(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]model.FeedbackEntry)
	m.revision++
	return nil
}

// Close implements service.FeedbackBackend.
func (m *MemoryBackend) Close() error {
	return nil
}

func (m *MemoryBackend) copyEntries() map[string]model.FeedbackEntry {
	out := make(map[string]model.FeedbackEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}
