package testutil

import (
	"math"
	"time"

	"github.com/Veraticus/weightbot/internal/model"
)

// FixedTime is the timestamp fixtures use unless told otherwise.
var FixedTime = time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)

// EntryBuilder builds feedback entries with a fluent API.
type EntryBuilder struct {
	entry model.FeedbackEntry
}

// NewEntry starts an entry for optionKey: a small appliance measured exactly as
// predicted at 1 kg.
func NewEntry(optionKey string) *EntryBuilder {
	return &EntryBuilder{entry: model.FeedbackEntry{
		OptionKey: optionKey,
		Category:  model.CategorySmallElec,
		Predicted: 1,
		Actual:    1,
		Timestamp: FixedTime,
	}}
}

// InCategory sets the category.
func (b *EntryBuilder) InCategory(category model.Category) *EntryBuilder {
	b.entry.Category = category
	return b
}

// Measured sets the predicted and actual weights; the delta follows.
func (b *EntryBuilder) Measured(predicted, actual float64) *EntryBuilder {
	b.entry.Predicted = predicted
	b.entry.Actual = actual
	return b
}

// At sets the timestamp.
func (b *EntryBuilder) At(ts time.Time) *EntryBuilder {
	b.entry.Timestamp = ts
	return b
}

// Build returns the entry.
func (b *EntryBuilder) Build() model.FeedbackEntry {
	e := b.entry
	e.Delta = math.Round((e.Actual-e.Predicted)*1000) / 1000
	return e
}

// CategoryDeltas returns one entry per category whose delta equals the given value.
func CategoryDeltas(deltas map[model.Category]float64) []model.FeedbackEntry {
	entries := make([]model.FeedbackEntry, 0, len(deltas))
	for category, delta := range deltas {
		entries = append(entries, NewEntry("fixture-"+string(category)).
			InCategory(category).
			Measured(1, 1+delta).
			Build())
	}
	return entries
}
