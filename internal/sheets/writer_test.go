package sheets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/weightbot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testConfig(spreadsheetID string) Config {
	config := DefaultConfig()
	config.ServiceAccountPath = "/unused.json"
	config.SpreadsheetID = spreadsheetID
	config.RetryDelay = time.Millisecond
	return config
}

func resultRow(code string, net float64) model.ResultRow {
	return model.ResultRow{
		ProductCode: "A1",
		OptionCode:  code,
		OptionName:  "기본",
		Category:    model.CategoryKettle,
		BoxCm:       "30.0x30.0x25.0",
		NetKg:       net,
		Confidence:  90,
		Timestamp:   "2026-08-12 10:00:00",
	}
}

func TestWriterWriteResults(t *testing.T) {
	api := NewMemoryValues("sheet-1")
	writer := NewWriterWithAPI(api, testConfig("sheet-1"), testLogger())
	ctx := context.Background()

	require.NoError(t, writer.WriteResults(ctx, []model.ResultRow{resultRow("A1-01", 1.44), resultRow("A1-02", 1.5)}))

	rows := api.Rows("sheet-1", DefaultResultsSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, "product_code", rows[0][0])
	assert.Equal(t, "power_factor", rows[0][len(rows[0])-1])
	assert.Equal(t, "A1-02", rows[2][1])
	assert.Equal(t, 1.5, rows[2][8])
	assert.Equal(t, []string{DefaultResultsSheet}, api.Formatted)

	// A second export replaces the first.
	require.NoError(t, writer.WriteResults(ctx, []model.ResultRow{resultRow("A1-09", 2)}))
	assert.Len(t, api.Rows("sheet-1", DefaultResultsSheet), 2)
}

func TestWriterBatches(t *testing.T) {
	api := NewMemoryValues("sheet-1")
	config := testConfig("sheet-1")
	config.BatchSize = 2
	writer := NewWriterWithAPI(api, config, testLogger())

	rows := make([]model.ResultRow, 5)
	for i := range rows {
		rows[i] = resultRow(fmt.Sprintf("OPT-%02d", i), float64(i))
	}
	require.NoError(t, writer.WriteResults(context.Background(), rows))

	written := api.Rows("sheet-1", DefaultResultsSheet)
	require.Len(t, written, 6)
	assert.Equal(t, fmt.Sprintf("OPT-%02d", 4), written[5][1])
}

func TestWriterCreatesSpreadsheet(t *testing.T) {
	api := NewMemoryValues("")
	writer := NewWriterWithAPI(api, testConfig(""), testLogger())

	require.NoError(t, writer.WriteResults(context.Background(), []model.ResultRow{resultRow("OPT-01", 1)}))
	id := writer.SpreadsheetID()
	require.NotEmpty(t, id)
	assert.Len(t, api.Rows(id, DefaultResultsSheet), 2)
	assert.Contains(t, api.Spreadsheets[id], DefaultFeedbackSheet)
}

func TestWriterPropagatesErrors(t *testing.T) {
	api := NewMemoryValues("sheet-1")
	api.FailWith = errors.New("quota exceeded")
	writer := NewWriterWithAPI(api, testConfig("sheet-1"), testLogger())

	err := writer.WriteResults(context.Background(), nil)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestMockWriter(t *testing.T) {
	mock := NewMockWriter()
	require.NoError(t, mock.WriteResults(context.Background(), []model.ResultRow{resultRow("x", 1)}))

	mock.SetWriteError(errors.New("boom"))
	assert.Error(t, mock.WriteResults(context.Background(), nil))

	calls := mock.GetWriteCalls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].Rows, 1)
	assert.Error(t, calls[1].Error)
	assert.Equal(t, 2, mock.WriteCallCount)
}
