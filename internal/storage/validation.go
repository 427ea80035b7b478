package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/weightbot/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrInvalidFeedback = errors.New("invalid feedback entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEntry checks the fields a row needs before it is written.
func validateEntry(entry model.FeedbackEntry) error {
	if strings.TrimSpace(entry.OptionKey) == "" {
		return fmt.Errorf("%w: missing option key", ErrInvalidFeedback)
	}
	for name, v := range map[string]float64{"predicted": entry.Predicted, "actual": entry.Actual, "delta": entry.Delta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidFeedback, name)
		}
	}
	return nil
}

// validateSet checks every entry of a set.
func validateSet(set model.FeedbackSet) error {
	for key, entry := range set.Entries {
		entry.OptionKey = key
		if err := validateEntry(entry); err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
	}
	return nil
}
