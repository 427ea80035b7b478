package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Veraticus/weightbot/internal/model"
)

// MockWriter is a mock implementation of service.ResultWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, rows []model.ResultRow) error
	WriteCalls     []WriteCall
	LastRows       []model.ResultRow
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to WriteResults.
type WriteCall struct {
	Error error
	Rows  []model.ResultRow
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// WriteResults implements service.ResultWriter.
func (m *MockWriter) WriteResults(ctx context.Context, rows []model.ResultRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastRows = rows

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, rows)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{Rows: rows, Error: err})
	return err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to return err from every WriteResults call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, []model.ResultRow) error {
		return err
	}
}

// MemoryValues is an in-memory ValuesAPI. Ranges are understood as "tab", "tab!A<row>",
// "tab!A<row>:<col>" or "tab!A<row>:<col><row>"; column bounds are ignored.
type MemoryValues struct {
	// FailWith, when set, is returned by every call.
	FailWith     error
	Spreadsheets map[string]map[string][][]any
	Formatted    []string
	nextID       int
	mu           sync.Mutex
}

// NewMemoryValues creates an empty fake holding spreadsheetID.
func NewMemoryValues(spreadsheetID string) *MemoryValues {
	m := &MemoryValues{Spreadsheets: make(map[string]map[string][][]any)}
	if spreadsheetID != "" {
		m.Spreadsheets[spreadsheetID] = make(map[string][][]any)
	}
	return m
}

// CreateSpreadsheet implements ValuesAPI.
func (m *MemoryValues) CreateSpreadsheet(_ context.Context, _, _ string, tabs []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return "", m.FailWith
	}
	m.nextID++
	id := fmt.Sprintf("sheet-%d", m.nextID)
	m.Spreadsheets[id] = make(map[string][][]any)
	for _, tab := range tabs {
		m.Spreadsheets[id][tab] = nil
	}
	return id, nil
}

// EnsureSheet implements ValuesAPI.
func (m *MemoryValues) EnsureSheet(_ context.Context, spreadsheetID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ss, err := m.spreadsheet(spreadsheetID)
	if err != nil {
		return err
	}
	if _, ok := ss[title]; !ok {
		ss[title] = nil
	}
	return nil
}

// Get implements ValuesAPI.
func (m *MemoryValues) Get(_ context.Context, spreadsheetID, readRange string) ([][]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ss, err := m.spreadsheet(spreadsheetID)
	if err != nil {
		return nil, err
	}
	tab, start, _ := parseRange(readRange)
	rows := ss[tab]
	if start-1 >= len(rows) {
		return nil, nil
	}
	out := make([][]any, len(rows)-(start-1))
	for i, r := range rows[start-1:] {
		out[i] = append([]any(nil), r...)
	}
	return out, nil
}

// Update implements ValuesAPI.
func (m *MemoryValues) Update(_ context.Context, spreadsheetID, writeRange string, values [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ss, err := m.spreadsheet(spreadsheetID)
	if err != nil {
		return err
	}
	tab, start, _ := parseRange(writeRange)
	rows := ss[tab]
	for len(rows) < start-1+len(values) {
		rows = append(rows, nil)
	}
	for i, v := range values {
		rows[start-1+i] = append([]any(nil), v...)
	}
	ss[tab] = rows
	return nil
}

// Clear implements ValuesAPI. A bare tab name clears the whole tab; a row range
// clears only those rows.
func (m *MemoryValues) Clear(_ context.Context, spreadsheetID, clearRange string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ss, err := m.spreadsheet(spreadsheetID)
	if err != nil {
		return err
	}
	tab, start, end := parseRange(clearRange)
	rows := ss[tab]
	if end == 0 || end > len(rows) {
		end = len(rows)
	}
	for i := start - 1; i < end; i++ {
		rows[i] = nil
	}
	for len(rows) > 0 && rows[len(rows)-1] == nil {
		rows = rows[:len(rows)-1]
	}
	ss[tab] = rows
	return nil
}

// FormatHeader implements ValuesAPI.
func (m *MemoryValues) FormatHeader(_ context.Context, spreadsheetID, title string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.spreadsheet(spreadsheetID); err != nil {
		return err
	}
	m.Formatted = append(m.Formatted, title)
	return nil
}

// Rows returns a copy of a tab's contents.
func (m *MemoryValues) Rows(spreadsheetID, tab string) [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([][]any(nil), m.Spreadsheets[spreadsheetID][tab]...)
}

func (m *MemoryValues) spreadsheet(id string) (map[string][][]any, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	ss, ok := m.Spreadsheets[id]
	if !ok {
		return nil, fmt.Errorf("spreadsheet %s not found", id)
	}
	return ss, nil
}

// parseRange splits "tab!A3:F12" into the tab and the 1-based start and end rows.
// end is 0 when the range is open ("tab!A3:F" or "tab!A3").
func parseRange(r string) (tab string, start, end int) {
	tab, cells, found := strings.Cut(r, "!")
	if !found {
		return tab, 1, 0
	}
	from, to, _ := strings.Cut(cells, ":")
	return tab, rowOf(from, 1), rowOf(to, 0)
}

func rowOf(cell string, fallback int) int {
	row, err := strconv.Atoi(strings.TrimLeft(cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	if err != nil || row < 1 {
		return fallback
	}
	return row
}
