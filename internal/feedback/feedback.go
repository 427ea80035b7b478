// Package feedback records measured weights and turns them into bounded per-category
// corrections for later estimates.
package feedback

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/weightbot/internal/model"
)

// MaxDelta bounds the correction applied to any category, in kilograms.
const MaxDelta = 2.0

// ErrInvalidFeedback is returned for submissions that cannot be recorded.
var ErrInvalidFeedback = errors.New("invalid feedback")

// NewEntry builds a feedback entry. The delta is actual minus predicted, rounded to
// three decimals.
func NewEntry(optionKey string, predicted, actual float64, category model.Category, at time.Time) (model.FeedbackEntry, error) {
	if err := Validate(optionKey, predicted, actual); err != nil {
		return model.FeedbackEntry{}, err
	}
	return model.FeedbackEntry{
		OptionKey: strings.TrimSpace(optionKey),
		Predicted: predicted,
		Actual:    actual,
		Delta:     math.Round((actual-predicted)*1000) / 1000,
		Category:  category,
		Timestamp: at,
	}, nil
}

// Validate checks a submission before it is recorded.
func Validate(optionKey string, predicted, actual float64) error {
	if strings.TrimSpace(optionKey) == "" {
		return fmt.Errorf("%w: option key is required", ErrInvalidFeedback)
	}
	if !(predicted > 0) || math.IsInf(predicted, 0) {
		return fmt.Errorf("%w: predicted weight must be positive", ErrInvalidFeedback)
	}
	if !(actual > 0) || math.IsInf(actual, 0) {
		return fmt.Errorf("%w: actual weight must be positive", ErrInvalidFeedback)
	}
	return nil
}

// Record returns a copy of set with entry stored under its option key, replacing any
// earlier entry for the same key.
func Record(set model.FeedbackSet, entry model.FeedbackEntry) model.FeedbackSet {
	out := set.Clone()
	out.Entries[entry.OptionKey] = entry
	return out
}

// AverageDelta returns the mean delta of every entry in category, clamped to
// [-MaxDelta, MaxDelta]. It is zero when the category has no entries.
func AverageDelta(set model.FeedbackSet, category model.Category) float64 {
	var sum float64
	var n int
	for _, entry := range set.Entries {
		if entry.Category != category || math.IsNaN(entry.Delta) {
			continue
		}
		sum += entry.Delta
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp(sum/float64(n), -MaxDelta, MaxDelta)
}

// DeltaTable holds the clamped average delta of every category present in a set.
type DeltaTable map[model.Category]float64

// NewDeltaTable computes the per-category averages for set.
func NewDeltaTable(set model.FeedbackSet) DeltaTable {
	table := make(DeltaTable)
	seen := make(map[model.Category]bool)
	for _, entry := range set.Entries {
		if seen[entry.Category] {
			continue
		}
		seen[entry.Category] = true
		table[entry.Category] = AverageDelta(set, entry.Category)
	}
	return table
}

// AverageDelta implements service.DeltaSource.
func (t DeltaTable) AverageDelta(category model.Category) float64 {
	return t[category]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
