package storage

import (
	"context"
	"math"
	"testing"

	"github.com/Veraticus/weightbot/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestValidateContext(t *testing.T) {
	assert.NoError(t, validateContext(context.Background()))
	//nolint:staticcheck // nil context is the point of the test
	assert.ErrorIs(t, validateContext(nil), ErrNilContext)
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "value", value: "feedback.db"},
		{name: "empty", value: "", wantErr: true},
		{name: "whitespace", value: " \t\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.value, "dbPath")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyString)
				assert.Contains(t, err.Error(), "dbPath")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateEntry(t *testing.T) {
	valid := model.FeedbackEntry{OptionKey: "K-01", Category: model.CategoryKettle, Predicted: 1.4, Actual: 1.6, Delta: 0.2}

	tests := []struct {
		mutate  func(e *model.FeedbackEntry)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.FeedbackEntry) {}},
		{name: "blank key", mutate: func(e *model.FeedbackEntry) { e.OptionKey = "  " }, wantErr: true},
		{name: "nan predicted", mutate: func(e *model.FeedbackEntry) { e.Predicted = math.NaN() }, wantErr: true},
		{name: "infinite actual", mutate: func(e *model.FeedbackEntry) { e.Actual = math.Inf(1) }, wantErr: true},
		{name: "infinite delta", mutate: func(e *model.FeedbackEntry) { e.Delta = math.Inf(-1) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := valid
			tt.mutate(&entry)
			err := validateEntry(entry)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFeedback)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateSetNamesTheBadEntry(t *testing.T) {
	set := model.NewFeedbackSet()
	set.Entries["K-01"] = model.FeedbackEntry{Category: model.CategoryKettle, Predicted: 1, Actual: 1}
	set.Entries["K-02"] = model.FeedbackEntry{Category: model.CategoryKettle, Predicted: math.NaN(), Actual: 1}

	err := validateSet(set)
	assert.ErrorIs(t, err, ErrInvalidFeedback)
	assert.Contains(t, err.Error(), `"K-02"`)
}
