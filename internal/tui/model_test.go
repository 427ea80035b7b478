package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/feedback"
	"github.com/Veraticus/weightbot/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (Model, *feedback.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := feedback.NewStore(feedback.NewMemoryBackend(), logger)
	pipeline := engine.NewPipeline(nil, nil, engine.WithLogger(logger))
	return NewModel(context.Background(), Config{Pipeline: pipeline, Store: store}), store
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func enter(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	return send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

// settle runs cmd and feeds its message back until no command is left.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		switch msg.(type) {
		case estimatedMsg, feedbackSavedMsg:
		default:
			return m
		}
		m, cmd = send(t, m, msg)
	}
	return m
}

func fillProduct(t *testing.T, m Model) Model {
	t.Helper()
	m = typeText(t, m, "A1")
	m, _ = enter(t, m)
	m = typeText(t, m, "2L 전기 주전자")
	m, _ = enter(t, m)
	m = typeText(t, m, "박스 32x28x30cm")
	m, _ = enter(t, m)
	m = typeText(t, m, "화이트 800W|블랙 1.2kg")
	return m
}

func TestFormEstimate(t *testing.T) {
	m, _ := newTestModel(t)
	m = fillProduct(t, m)
	assert.Equal(t, fieldOptions, m.focus)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.Equal(t, StateEstimating, m.State())

	m = settle(t, m, cmd)
	require.Equal(t, StateResults, m.State())
	require.NoError(t, m.Err())

	out := m.Output()
	assert.Equal(t, model.CategoryKettle, out.Category)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "A1-01", out.Rows[0].OptionCode)
	assert.InDelta(t, 1.68, out.Rows[0].NetKg, 1e-9)
	assert.InDelta(t, 1.2, out.Rows[1].NetKg, 1e-9)
	assert.Contains(t, m.View(), "A1-02")
}

func TestFormEnterOnLastFieldSubmits(t *testing.T) {
	m, _ := newTestModel(t)
	m = fillProduct(t, m)

	var cmd tea.Cmd
	for m.focus < fieldCount-1 {
		m, cmd = enter(t, m)
	}
	assert.Equal(t, StateEditing, m.State())

	m, cmd = enter(t, m)
	require.NotNil(t, cmd)
	m = settle(t, m, cmd)
	assert.Equal(t, StateResults, m.State())
}

func TestFormValidation(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Equal(t, StateEditing, m.State())
	assert.ErrorContains(t, m.Err(), "product name is required")

	m = fillProduct(t, m)
	m, _ = enter(t, m)
	m = typeText(t, m, "many")
	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.ErrorContains(t, m.Err(), "whole number")
	assert.Contains(t, m.View(), "whole number")
}

func TestFormRecordsFeedback(t *testing.T) {
	m, store := newTestModel(t)
	m = fillProduct(t, m)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = settle(t, m, cmd)
	require.Equal(t, StateResults, m.State())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	require.Equal(t, StateFeedback, m.State())
	assert.Equal(t, "A1-01", m.feedbackInputs[feedbackOption].Value())
	assert.Equal(t, feedbackActual, m.focus)

	m = typeText(t, m, "1.8")
	m, cmd = enter(t, m)
	require.NotNil(t, cmd)
	m = settle(t, m, cmd)

	require.NoError(t, m.Err())
	assert.Equal(t, StateResults, m.State())
	assert.Contains(t, m.View(), "Recorded A1-01")

	set := store.LoadAll(context.Background())
	require.Equal(t, 1, set.Len())
	assert.InDelta(t, 0.12, set.Entries["A1-01"].Delta, 1e-9)

	// The table is recomputed with the new correction.
	assert.InDelta(t, 1.8, m.Output().Rows[0].NetKg, 1e-9)
	assert.InDelta(t, 0.12, m.Output().Rows[0].DeltaApplied, 1e-9)
}

func TestFormFeedbackRejectsBadWeight(t *testing.T) {
	m, _ := newTestModel(t)
	m = fillProduct(t, m)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = settle(t, m, cmd)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	m = typeText(t, m, "heavy")
	m, cmd = enter(t, m)
	assert.Nil(t, cmd)
	assert.ErrorContains(t, m.Err(), "must be a number")

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateResults, m.State())
}

func TestFormQuit(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
