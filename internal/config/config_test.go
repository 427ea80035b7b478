package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/weightbot/weightbot.db", cfg.Database.Path)
	assert.Equal(t, BackendSQLite, cfg.Feedback.Backend)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 0.1, cfg.Estimator.ExtraConstant, 1e-9)
	assert.InDelta(t, 0.0, cfg.Estimator.AllowanceCm, 1e-9)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("feedback.backend", " JSON ")
	v.Set("feedback.json_path", "/data/feedback.json")
	v.Set("server.port", 9090)
	v.Set("estimator.allowance_cm", 2)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, BackendJSON, cfg.Feedback.Backend)
	assert.Equal(t, "/data/feedback.json", cfg.Feedback.JSONPath)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 2.0, cfg.Estimator.AllowanceCm, 1e-9)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		set     map[string]any
		wantErr error
		name    string
	}{
		{name: "unknown backend", set: map[string]any{"feedback.backend": "redis"}, wantErr: common.ErrInvalidConfig},
		{name: "postgres without dsn", set: map[string]any{"feedback.backend": "postgres"}, wantErr: common.ErrMissingConfig},
		{name: "sheets backend", set: map[string]any{"feedback.backend": "sheets"}},
		{name: "port out of range", set: map[string]any{"server.port": 70000}, wantErr: common.ErrInvalidConfig},
		{name: "negative rate", set: map[string]any{"server.rate_limit": -1}, wantErr: common.ErrInvalidConfig},
		{name: "negative extra", set: map[string]any{"estimator.extra_constant": -0.1}, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := LoadFrom(v)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadClassifierKeywords(t *testing.T) {
	v := viper.New()
	v.Set("classifier.keywords", map[string]any{"kettle": []string{"포트"}})

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"포트"}, cfg.Classifier.Keywords[model.CategoryKettle])

	v = viper.New()
	v.Set("classifier.keywords", map[string]any{"rocket": []string{"x"}})
	_, err = LoadFrom(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WEIGHTBOT_DOTENV_PROBE=from-file\n"), 0o600))

	t.Setenv("WEIGHTBOT_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("WEIGHTBOT_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "from-file", os.Getenv("WEIGHTBOT_DOTENV_PROBE"))
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("WEIGHTBOT_DATA", "/srv/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: "/home/tester"},
		{in: "~/feedback.json", want: "/home/tester/feedback.json"},
		{in: "$WEIGHTBOT_DATA/weightbot.db", want: "/srv/data/weightbot.db"},
		{in: "/abs/path", want: "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadSheetsConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", "/home/tester")
	for _, name := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN", "GOOGLE_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(name, "")
	}

	_, err := LoadSheetsConfig()
	require.Error(t, err)

	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "~/keys/sa.json")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "from-env")
	viper.Set("sheets.spreadsheet_id", "from-viper")
	viper.Set("sheets.results_sheet", "estimates")

	cfg, err := LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/keys/sa.json", cfg.ServiceAccountPath)
	assert.Equal(t, "from-viper", cfg.SpreadsheetID)
	assert.Equal(t, "estimates", cfg.ResultsSheet)
	assert.Equal(t, "feedback", cfg.FeedbackSheet)
	assert.Equal(t, "WeightBot Results", cfg.SpreadsheetName)
}
