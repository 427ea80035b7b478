package config

import (
	"os"

	"github.com/Veraticus/weightbot/internal/sheets"
	"github.com/spf13/viper"
)

// sheetsSetting maps a viper key and its GOOGLE_SHEETS_* fallback onto a field.
type sheetsSetting struct {
	field  func(*sheets.Config) *string
	key    string
	envVar string
	path   bool
}

var sheetsSettings = []sheetsSetting{
	{key: "sheets.service_account_path", envVar: "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", path: true,
		field: func(c *sheets.Config) *string { return &c.ServiceAccountPath }},
	{key: "sheets.client_id", envVar: "GOOGLE_SHEETS_CLIENT_ID",
		field: func(c *sheets.Config) *string { return &c.ClientID }},
	{key: "sheets.client_secret", envVar: "GOOGLE_SHEETS_CLIENT_SECRET",
		field: func(c *sheets.Config) *string { return &c.ClientSecret }},
	{key: "sheets.refresh_token", envVar: "GOOGLE_SHEETS_REFRESH_TOKEN",
		field: func(c *sheets.Config) *string { return &c.RefreshToken }},
	{key: "sheets.spreadsheet_id", envVar: "GOOGLE_SHEETS_SPREADSHEET_ID",
		field: func(c *sheets.Config) *string { return &c.SpreadsheetID }},
	{key: "sheets.spreadsheet_name", envVar: "GOOGLE_SHEETS_SPREADSHEET_NAME",
		field: func(c *sheets.Config) *string { return &c.SpreadsheetName }},
	{key: "sheets.results_sheet",
		field: func(c *sheets.Config) *string { return &c.ResultsSheet }},
	{key: "sheets.feedback_sheet",
		field: func(c *sheets.Config) *string { return &c.FeedbackSheet }},
	{key: "sheets.time_zone",
		field: func(c *sheets.Config) *string { return &c.TimeZone }},
}

// LoadSheetsConfig builds the Google Sheets configuration. For each setting the
// viper value (config file or WEIGHTBOT_SHEETS_*) wins, then the GOOGLE_SHEETS_*
// variable, then the default.
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	for _, s := range sheetsSettings {
		value := viper.GetString(s.key)
		if value == "" && s.envVar != "" {
			value = os.Getenv(s.envVar)
		}
		if value == "" {
			continue
		}
		if s.path {
			value = ExpandPath(value)
		}
		*s.field(&config) = value
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
