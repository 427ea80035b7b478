package feedback

import (
	"testing"
	"time"

	"github.com/Veraticus/weightbot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setOf(entries ...model.FeedbackEntry) model.FeedbackSet {
	set := model.NewFeedbackSet()
	for _, e := range entries {
		set.Entries[e.OptionKey] = e
	}
	return set
}

func entry(key string, category model.Category, delta float64) model.FeedbackEntry {
	return model.FeedbackEntry{OptionKey: key, Category: category, Delta: delta}
}

func TestNewEntry(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	e, err := NewEntry(" A240812-01 ", 1.44, 1.61249, model.CategoryKettle, at)
	require.NoError(t, err)
	assert.Equal(t, "A240812-01", e.OptionKey)
	assert.InDelta(t, 0.172, e.Delta, 1e-12)
	assert.Equal(t, model.CategoryKettle, e.Category)
	assert.Equal(t, at, e.Timestamp)

	e, err = NewEntry("OPT-01", 2.0, 1.5, model.CategoryBlender, at)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, e.Delta, 1e-12)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		predicted float64
		actual    float64
		wantErr   bool
	}{
		{name: "valid", key: "OPT-01", predicted: 1, actual: 2},
		{name: "missing key", key: "  ", predicted: 1, actual: 2, wantErr: true},
		{name: "zero predicted", key: "OPT-01", predicted: 0, actual: 2, wantErr: true},
		{name: "negative actual", key: "OPT-01", predicted: 1, actual: -2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.key, tt.predicted, tt.actual)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFeedback)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAverageDelta(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		assert.Zero(t, AverageDelta(model.NewFeedbackSet(), model.CategoryShoes))
	})

	t.Run("mean of matching category", func(t *testing.T) {
		set := setOf(
			entry("b1", model.CategoryBlender, 0.3),
			entry("b2", model.CategoryBlender, -0.1),
			entry("b3", model.CategoryBlender, 0.2),
			entry("k1", model.CategoryKettle, 1.5),
		)
		assert.InDelta(t, 0.4/3, AverageDelta(set, model.CategoryBlender), 1e-12)
		assert.InDelta(t, 1.5, AverageDelta(set, model.CategoryKettle), 1e-12)
		assert.Zero(t, AverageDelta(set, model.CategoryBeauty))
	})

	t.Run("single outlier is clamped", func(t *testing.T) {
		set := setOf(entry("typo", model.CategoryKettle, 1000))
		assert.Equal(t, MaxDelta, AverageDelta(set, model.CategoryKettle))

		set = setOf(entry("typo", model.CategoryKettle, -1000))
		assert.Equal(t, -MaxDelta, AverageDelta(set, model.CategoryKettle))
	})
}

func TestAverageDeltaAlwaysBounded(t *testing.T) {
	deltas := []float64{-1e9, -3, -2, -0.5, 0, 0.7, 2, 2.0001, 77, 1e12}
	for i := range deltas {
		set := model.NewFeedbackSet()
		for j := 0; j <= i; j++ {
			set.Entries[string(rune('a'+j))] = entry(string(rune('a'+j)), model.CategoryPotPan, deltas[j])
		}
		avg := AverageDelta(set, model.CategoryPotPan)
		assert.GreaterOrEqual(t, avg, -MaxDelta)
		assert.LessOrEqual(t, avg, MaxDelta)
	}
}

func TestRecordIsLastWriteWins(t *testing.T) {
	set := model.NewFeedbackSet()
	set = Record(set, entry("OPT-01", model.CategoryKettle, 0.5))
	updated := Record(set, entry("OPT-01", model.CategoryKettle, -0.25))

	assert.Equal(t, 1, updated.Len())
	assert.InDelta(t, -0.25, updated.Entries["OPT-01"].Delta, 1e-12)
	assert.InDelta(t, 0.5, set.Entries["OPT-01"].Delta, 1e-12, "input set is not mutated")
}

func TestDeltaTable(t *testing.T) {
	set := setOf(
		entry("b1", model.CategoryBlender, 0.3),
		entry("b2", model.CategoryBlender, -0.1),
		entry("s1", model.CategoryShoes, 5),
	)
	table := NewDeltaTable(set)

	assert.Len(t, table, 2)
	assert.InDelta(t, 0.1, table.AverageDelta(model.CategoryBlender), 1e-12)
	assert.Equal(t, MaxDelta, table.AverageDelta(model.CategoryShoes))
	assert.Zero(t, table.AverageDelta(model.CategoryClothing))
}
