package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	configPath   string
	feedbackPath string
	dir          string
}

// newTestEnv points HOME at a temp dir and writes a config using the json backend.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))

	env := &testEnv{
		dir:          dir,
		configPath:   filepath.Join(dir, "config.yaml"),
		feedbackPath: filepath.Join(dir, "feedback.json"),
	}
	cfg := "feedback:\n  backend: json\n  json_path: " + env.feedbackPath + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0600))
	return env
}

// run executes the CLI with args and returns stdout.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.configPath, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "weightbot dev\n", out)
}

func TestEstimateCommandJSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "estimate",
		"--code", "A240812",
		"--name", "2L 전기 주전자",
		"--spec", "박스 32x28x30cm",
		"--option", "화이트 800W",
		"--option", "블랙 1.2kg",
		"--json")
	require.NoError(t, err)

	var result engine.Output
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, model.CategoryKettle, result.Category)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "A240812-01", result.Rows[0].OptionCode)
	assert.InDelta(t, 1.68, result.Rows[0].NetKg, 1e-9)
	assert.InDelta(t, 1.2, result.Rows[1].NetKg, 1e-9)
}

func TestEstimateCommandTable(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "estimate", "--name", "2L 전기 주전자", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2L 전기 주전자 (kettle)")
	assert.Contains(t, out, "Box ")
}

func TestEstimateCommandWritesFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "out", "estimate.csv")

	_, err := env.run(t, "", "estimate", "--name", "보온병 500ml", "--count", "2", "--output", path)
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, model.ResultColumns, records[0])
}

func TestEstimateCommandRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "estimate", "--name", "주전자", "--count", "-1")
	require.Error(t, err)

	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}

func TestFeedbackCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "feedback", "record", "A240812-01",
		"--predicted", "1.68", "--actual", "1.88", "--category", "kettle")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded A240812-01 (kettle): delta +0.200 kg")
	assert.FileExists(t, env.feedbackPath)

	out, err = env.run(t, "", "feedback", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "A240812-01")

	out, err = env.run(t, "", "feedback", "list", "--category", "shoes")
	require.NoError(t, err)
	assert.NotContains(t, out, "A240812-01")

	out, err = env.run(t, "", "feedback", "deltas")
	require.NoError(t, err)
	assert.Contains(t, out, "kettle")

	out, err = env.run(t, "", "estimate", "--name", "2L 전기 주전자", "--option", "화이트 800W", "--json")
	require.NoError(t, err)
	var result engine.Output
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Rows, 1)
	assert.InDelta(t, 1.88, result.Rows[0].NetKg, 1e-9)
	assert.InDelta(t, 0.2, result.Rows[0].DeltaApplied, 1e-9)
}

func TestEstimateWithUnavailableFeedbackStore(t *testing.T) {
	env := newTestEnv(t)

	// A regular file where the feedback directory should be makes the store unopenable.
	blocker := filepath.Join(env.dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))
	cfg := "feedback:\n  backend: json\n  json_path: " + filepath.Join(blocker, "feedback.json") + "\n"
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0600))

	out, err := env.run(t, "", "estimate", "--name", "2L 전기 주전자", "--option", "화이트 800W", "--json")
	require.NoError(t, err)
	var result engine.Output
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Rows, 1)
	assert.InDelta(t, 1.68, result.Rows[0].NetKg, 1e-9)
	assert.InDelta(t, 0.0, result.Rows[0].DeltaApplied, 1e-9)

	input := filepath.Join(env.dir, "products.csv")
	require.NoError(t, os.WriteFile(input, []byte("product_name\n보온병 500ml\n"), 0600))
	_, err = env.run(t, "", "batch", input, "-o", filepath.Join(env.dir, "results.csv"), "--no-progress")
	require.NoError(t, err)

	out, err = env.run(t, "", "feedback", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No feedback recorded yet.")

	_, err = env.run(t, "", "feedback", "record", "K-1", "--predicted", "1", "--actual", "1.5", "--category", "kettle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open feedback store")
}

func TestFeedbackRecordClassifiesByName(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "feedback", "record", "S-01",
		"--predicted", "0.9", "--actual", "1.0", "--name", "운동 신발 270")
	require.NoError(t, err)
	assert.Contains(t, out, "(shoes)")
}

func TestFeedbackRecordErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown category", args: []string{"K-1", "--predicted", "1", "--actual", "1", "--category", "spaceship"}},
		{name: "no category or name", args: []string{"K-1", "--predicted", "1", "--actual", "1"}},
		{name: "negative weight", args: []string{"K-1", "--predicted", "1", "--actual", "-1", "--category", "kettle"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, "", append([]string{"feedback", "record"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestFeedbackReset(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "feedback", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to reset")

	_, err = env.run(t, "", "feedback", "record", "K-1", "--predicted", "1", "--actual", "1.5", "--category", "kettle")
	require.NoError(t, err)

	out, err = env.run(t, "n\n", "feedback", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset canceled.")

	out, err = env.run(t, "", "feedback", "reset", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 feedback entries")

	out, err = env.run(t, "", "feedback", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No feedback recorded yet.")
}

func TestFeedbackHistoryNeedsDatabase(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "feedback", "history", "K-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not keep history")
}

func TestFeedbackImport(t *testing.T) {
	env := newTestEnv(t)

	source := filepath.Join(env.dir, "legacy.json")
	legacy := `{"K-1": {"predicted": 1.0, "actual": 1.4, "delta": 0.4, "category": "kettle", "ts": 1723456789}}`
	require.NoError(t, os.WriteFile(source, []byte(legacy), 0600))

	out, err := env.run(t, "", "feedback", "import", source)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 entries")

	out, err = env.run(t, "", "feedback", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "K-1")
}

func TestBatchCommand(t *testing.T) {
	env := newTestEnv(t)

	input := filepath.Join(env.dir, "products.csv")
	csvData := "product_code,product_name,spec_text,option_names\n" +
		"A1,2L 전기 주전자,박스 32x28x30cm,화이트 800W|블랙 1.2kg\n" +
		"B2,보온병 500ml,,\n"
	require.NoError(t, os.WriteFile(input, []byte(csvData), 0600))
	output := filepath.Join(env.dir, "results.csv")

	out, err := env.run(t, "", "batch", input, "-o", output, "--no-progress", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Batch Complete")

	records := readCSV(t, output)
	require.Len(t, records, 4)
	assert.Equal(t, model.ResultColumns, records[0])
	assert.Equal(t, "A1-01", records[1][1])
	assert.Equal(t, "A1-02", records[2][1])
	assert.Equal(t, "B2", records[3][0])
}

func TestBatchCommandXLSX(t *testing.T) {
	env := newTestEnv(t)

	input := filepath.Join(env.dir, "products.csv")
	require.NoError(t, os.WriteFile(input, []byte("product_name\n에어프라이어 5.5L\n"), 0600))
	output := filepath.Join(env.dir, "results.xlsx")

	_, err := env.run(t, "", "batch", input, "-o", output, "--no-progress")
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestBatchCommandErrors(t *testing.T) {
	env := newTestEnv(t)

	empty := filepath.Join(env.dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("product_name\n"), 0600))

	_, err := env.run(t, "", "batch", empty, "--no-progress")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no products found")

	_, err = env.run(t, "", "batch", filepath.Join(env.dir, "missing.csv"), "--no-progress")
	require.Error(t, err)

	input := filepath.Join(env.dir, "products.csv")
	require.NoError(t, os.WriteFile(input, []byte("product_name\n주전자\n"), 0600))
	_, err = env.run(t, "", "batch", input, "-o", filepath.Join(env.dir, "out.txt"), "--no-progress")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestMigrateCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "no schema to migrate")

	out, err = env.run(t, "", "--feedback-backend", "sqlite", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Database migrations completed")

	out, err = env.run(t, "", "--feedback-backend", "sqlite", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 2 (latest 2)")
}

func TestAuthSheetsNeedsClientCredentials(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")

	_, err := env.run(t, "", "auth", "sheets", "--client-id", "only-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}
