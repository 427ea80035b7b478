// Package tui implements the interactive estimate form.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/weightbot/internal/cli"
	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/feedback"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// State represents the current screen of the form.
type State int

const (
	StateEditing State = iota
	StateEstimating
	StateResults
	StateFeedback
)

// Product form fields, in tab order.
const (
	fieldProductCode = iota
	fieldProductName
	fieldSpecText
	fieldOptions
	fieldOptionCount
	fieldCapacity
	fieldBoxLength
	fieldBoxWidth
	fieldBoxHeight
	fieldAllowance
	fieldPower
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Product code",
	"Product name",
	"Spec text",
	"Options (a|b|c)",
	"Option count",
	"Capacity (L)",
	"Box length (cm)",
	"Box width (cm)",
	"Box height (cm)",
	"Allowance (cm)",
	"Power (kW)",
}

// Feedback form fields.
const (
	feedbackOption = iota
	feedbackActual
	feedbackFieldCount
)

// Config holds what the form needs to estimate and record feedback.
type Config struct {
	Pipeline *engine.Pipeline
	Store    *feedback.Store
	Theme    *Theme
}

// Model holds the form state.
type Model struct {
	ctx            context.Context
	err            error
	pipeline       *engine.Pipeline
	store          *feedback.Store
	theme          Theme
	keymap         KeyMap
	status         string
	inputs         []textinput.Model
	feedbackInputs []textinput.Model
	output         engine.Output
	request        engine.Request
	focus          int
	state          State
	quitting       bool
}

// NewModel creates the form. A nil pipeline uses the defaults.
func NewModel(ctx context.Context, cfg Config) Model {
	if cfg.Pipeline == nil {
		cfg.Pipeline = engine.NewPipeline(nil, nil)
	}
	theme := DefaultTheme
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}

	m := Model{
		ctx:            ctx,
		pipeline:       cfg.Pipeline,
		store:          cfg.Store,
		theme:          theme,
		keymap:         DefaultKeyMap(),
		inputs:         make([]textinput.Model, fieldCount),
		feedbackInputs: make([]textinput.Model, feedbackFieldCount),
		state:          StateEditing,
	}

	for i := range m.inputs {
		m.inputs[i] = newInput(theme)
	}
	m.inputs[fieldProductName].Placeholder = "3L 전기밥솥 스테인리스"
	m.inputs[fieldSpecText].Placeholder = "박스 40x30x35cm"
	m.inputs[fieldOptions].Placeholder = "화이트 800W|블랙 1.2kg"
	m.inputs[fieldProductCode].Focus()

	for i := range m.feedbackInputs {
		m.feedbackInputs[i] = newInput(theme)
	}
	m.feedbackInputs[feedbackActual].Placeholder = "measured kg"

	return m
}

func newInput(theme Theme) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 500
	in.Width = 48
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(theme.Muted)
	return in
}

// State returns the current screen.
func (m Model) State() State {
	return m.state
}

// Output returns the latest estimate.
func (m Model) Output() engine.Output {
	return m.output
}

// Err returns the error shown to the user, if any.
func (m Model) Err() error {
	return m.err
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.state {
		case StateEditing:
			return m.updateEditing(msg)
		case StateResults:
			return m.updateResults(msg)
		case StateFeedback:
			return m.updateFeedback(msg)
		case StateEstimating:
			return m, nil
		}

	case estimatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateEditing
			return m, nil
		}
		m.err = nil
		m.output = msg.out
		m.state = StateResults
		return m, nil

	case feedbackSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Recorded %s: %.2f kg measured, delta %+.3f kg",
			msg.entry.OptionKey, msg.entry.Actual, msg.entry.Delta)
		m.state = StateEstimating
		return m, m.estimate(m.request)
	}

	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Submit):
		return m.submit()
	case key.Matches(msg, m.keymap.Next):
		if m.focus == fieldCount-1 {
			return m.submit()
		}
		return m, m.moveFocus(m.inputs, m.focus+1)
	case key.Matches(msg, m.keymap.Prev):
		if m.focus == 0 {
			return m, nil
		}
		return m, m.moveFocus(m.inputs, m.focus-1)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Feedback):
		if len(m.output.Rows) == 0 {
			return m, nil
		}
		m.state = StateFeedback
		m.status = ""
		m.feedbackInputs[feedbackOption].SetValue(m.output.Rows[0].OptionCode)
		m.feedbackInputs[feedbackActual].SetValue("")
		m.focus = 0
		return m, m.moveFocus(m.feedbackInputs, feedbackActual)
	case key.Matches(msg, m.keymap.Edit), key.Matches(msg, m.keymap.Back):
		m.state = StateEditing
		m.focus = 0
		return m, m.moveFocus(m.inputs, 0)
	}
	return m, nil
}

func (m Model) updateFeedback(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Back):
		m.state = StateResults
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keymap.Next), key.Matches(msg, m.keymap.Submit):
		if m.focus == feedbackFieldCount-1 || key.Matches(msg, m.keymap.Submit) {
			return m.saveFeedback()
		}
		return m, m.moveFocus(m.feedbackInputs, m.focus+1)
	case key.Matches(msg, m.keymap.Prev):
		if m.focus == 0 {
			return m, nil
		}
		return m, m.moveFocus(m.feedbackInputs, m.focus-1)
	}

	var cmd tea.Cmd
	m.feedbackInputs[m.focus], cmd = m.feedbackInputs[m.focus].Update(msg)
	return m, cmd
}

// moveFocus blurs the current input of group and focuses index.
func (m *Model) moveFocus(group []textinput.Model, index int) tea.Cmd {
	for i := range group {
		group[i].Blur()
	}
	m.focus = index
	return group[index].Focus()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.buildRequest()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.status = ""
	m.request = req
	m.state = StateEstimating
	return m, m.estimate(req)
}

func (m Model) estimate(req engine.Request) tea.Cmd {
	pipeline := m.pipeline
	store := m.store
	ctx := m.ctx
	return func() tea.Msg {
		var deltas service.DeltaSource
		if store != nil {
			deltas = store.Deltas(ctx)
		}
		out, err := pipeline.Run(req, deltas)
		return estimatedMsg{out: out, err: err}
	}
}

func (m Model) saveFeedback() (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.err = fmt.Errorf("no feedback store configured")
		return m, nil
	}

	optionCode := strings.TrimSpace(m.feedbackInputs[feedbackOption].Value())
	row, ok := m.findRow(optionCode)
	if !ok {
		m.err = fmt.Errorf("unknown option %q", optionCode)
		return m, nil
	}
	actual, err := parseNumber("Measured weight", m.feedbackInputs[feedbackActual].Value())
	if err != nil {
		m.err = err
		return m, nil
	}

	store := m.store
	ctx := m.ctx
	category := m.output.Category
	return m, func() tea.Msg {
		entry, err := store.RecordFeedback(ctx, row.OptionCode, row.NetKg, actual, category)
		return feedbackSavedMsg{entry: entry, err: err}
	}
}

func (m Model) findRow(optionCode string) (model.ResultRow, bool) {
	for _, row := range m.output.Rows {
		if row.OptionCode == optionCode {
			return row, true
		}
	}
	return model.ResultRow{}, false
}

func (m Model) buildRequest() (engine.Request, error) {
	value := func(i int) string {
		return strings.TrimSpace(m.inputs[i].Value())
	}

	req := engine.Request{
		ProductCode: value(fieldProductCode),
		ProductName: value(fieldProductName),
		SpecText:    value(fieldSpecText),
		OptionNames: engine.SplitOptionNames(value(fieldOptions)),
	}
	if req.ProductName == "" {
		return req, fmt.Errorf("product name is required")
	}

	if v := value(fieldOptionCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("option count must be a whole number")
		}
		req.OptionCount = n
	}

	numbers := []struct {
		dst   *float64
		field int
	}{
		{dst: &req.ManualCapacityL, field: fieldCapacity},
		{dst: &req.ManualDims.Length, field: fieldBoxLength},
		{dst: &req.ManualDims.Width, field: fieldBoxWidth},
		{dst: &req.ManualDims.Height, field: fieldBoxHeight},
		{dst: &req.AllowanceCm, field: fieldAllowance},
		{dst: &req.PowerKW, field: fieldPower},
	}
	for _, n := range numbers {
		v, err := parseNumber(fieldLabels[n.field], value(n.field))
		if err != nil {
			return req, err
		}
		*n.dst = v
	}

	return req, req.Validate()
}

func parseNumber(label, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", label)
	}
	return v, nil
}

// View renders the form.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render(cli.ScaleIcon + " WeightBot"))
	b.WriteString("\n")

	switch m.state {
	case StateEditing:
		b.WriteString(m.renderInputs(m.inputs, fieldLabels[:]))
		b.WriteString(m.theme.Help.Render("enter/tab next • shift+tab back • ctrl+s estimate • ctrl+c quit"))
	case StateEstimating:
		b.WriteString("Estimating...\n")
	case StateResults:
		b.WriteString(m.renderResults())
		b.WriteString(m.theme.Help.Render("f record measured weight • e edit • ctrl+c quit"))
	case StateFeedback:
		b.WriteString(m.renderResults())
		b.WriteString(m.renderInputs(m.feedbackInputs, []string{"Option code", "Measured (kg)"}))
		b.WriteString(m.theme.Help.Render("enter save • esc cancel"))
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.theme.StatusError.Render(cli.ErrorIcon + " " + m.err.Error()))
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.StatusSuccess.Render(cli.SuccessIcon + " " + m.status))
	}
	return b.String() + "\n"
}

func (m Model) renderInputs(inputs []textinput.Model, labels []string) string {
	var b strings.Builder
	for i, in := range inputs {
		label := m.theme.Label
		if i == m.focus {
			label = m.theme.FocusedLabel
		}
		b.WriteString(label.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderResults() string {
	out := m.output
	summary := fmt.Sprintf("Category %s • box %.1fx%.1fx%.1f cm • capacity %.2f L\n\n%s",
		out.Category, out.Box.Length, out.Box.Width, out.Box.Height, out.CapacityL,
		cli.RenderResults(out.Rows))
	return m.theme.RoundedBox.Render(summary) + "\n"
}
