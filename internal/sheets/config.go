// Package sheets provides Google Sheets integration for result export and shared
// feedback storage.
package sheets

import (
	"errors"
	"time"
)

// Default tab names.
const (
	DefaultResultsSheet  = "results"
	DefaultFeedbackSheet = "feedback"
)

// Config holds the credentials and layout used by Writer and FeedbackBackend.
// Exactly one of ServiceAccountPath or the OAuth2 triple must be set.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	ResultsSheet       string
	FeedbackSheet      string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns the layout defaults with no credentials.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  "WeightBot Results",
		ResultsSheet:     DefaultResultsSheet,
		FeedbackSheet:    DefaultFeedbackSheet,
		TimeZone:         "Asia/Seoul",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
		EnableFormatting: true,
	}
}

type authMethod int

const (
	authNone authMethod = iota
	authOAuth2
	authServiceAccount
	authBoth
)

func (c *Config) authMethod() authMethod {
	oauth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	switch {
	case oauth && c.ServiceAccountPath != "":
		return authBoth
	case oauth:
		return authOAuth2
	case c.ServiceAccountPath != "":
		return authServiceAccount
	default:
		return authNone
	}
}

// Validate reports the first problem with the configuration.
func (c *Config) Validate() error {
	switch c.authMethod() {
	case authNone:
		return errors.New("no authentication method configured: set a service account path or OAuth2 credentials")
	case authBoth:
		return errors.New("multiple authentication methods configured; use either OAuth2 or service account")
	}

	switch {
	case c.BatchSize <= 0:
		return errors.New("batch size must be positive")
	case c.RetryAttempts < 0:
		return errors.New("retry attempts cannot be negative")
	case c.RetryDelay < 0:
		return errors.New("retry delay cannot be negative")
	case c.ResultsSheet == "" || c.FeedbackSheet == "":
		return errors.New("sheet names cannot be empty")
	}
	return nil
}
