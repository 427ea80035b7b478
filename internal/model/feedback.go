package model

import (
	"sort"
	"time"
)

// FeedbackEntry records one measured weight against the estimate it corrects.
// Entries are never mutated; a later entry for the same option replaces it.
type FeedbackEntry struct {
	Timestamp time.Time `json:"timestamp"`
	OptionKey string    `json:"option_key,omitempty"`
	Category  Category  `json:"category"`
	Predicted float64   `json:"predicted"`
	Actual    float64   `json:"actual"`
	Delta     float64   `json:"delta"`
}

// FeedbackSet is a snapshot of the feedback store keyed by option key.
// Revision identifies the stored state the snapshot was read from.
type FeedbackSet struct {
	Entries  map[string]FeedbackEntry
	Revision int64
}

// NewFeedbackSet returns an empty set.
func NewFeedbackSet() FeedbackSet {
	return FeedbackSet{Entries: make(map[string]FeedbackEntry)}
}

// Len returns the number of entries.
func (s FeedbackSet) Len() int {
	return len(s.Entries)
}

// Sorted returns the entries ordered by option key.
func (s FeedbackSet) Sorted() []FeedbackEntry {
	entries := make([]FeedbackEntry, 0, len(s.Entries))
	for key, entry := range s.Entries {
		entry.OptionKey = key
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OptionKey < entries[j].OptionKey
	})
	return entries
}

// Clone returns a deep copy of the set.
func (s FeedbackSet) Clone() FeedbackSet {
	out := FeedbackSet{Entries: make(map[string]FeedbackEntry, len(s.Entries)), Revision: s.Revision}
	for k, v := range s.Entries {
		out.Entries[k] = v
	}
	return out
}
