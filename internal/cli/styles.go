// Package cli renders estimates, feedback and progress for the terminal using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	accentColor  = lipgloss.Color("#5B8DEF")
	okColor      = lipgloss.Color("#4ECDC4")
	cautionColor = lipgloss.Color("#FFE66D")
	failColor    = lipgloss.Color("#FF6B6B")
	noteColor    = lipgloss.Color("#95E1D3")
	mutedColor   = lipgloss.Color("#666666")
	borderColor  = lipgloss.Color("#333")
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ScaleIcon   = "⚖️"
	BoxIcon     = "📦"
)

var (
	// TitleStyle is used for headings above tables and boxes.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1)

	// SubtleStyle is used for empty-state messages and secondary text.
	SubtleStyle = lipgloss.NewStyle().Foreground(mutedColor)

	// TableHeaderStyle underlines the header row of a table.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(borderColor)

	// TableCellStyle separates columns.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(1, 2)
)

type message struct {
	style lipgloss.Style
	icon  string
}

var (
	successMessage = message{style: lipgloss.NewStyle().Foreground(okColor), icon: SuccessIcon}
	errorMessage   = message{style: lipgloss.NewStyle().Foreground(failColor), icon: ErrorIcon}
	warningMessage = message{style: lipgloss.NewStyle().Foreground(cautionColor), icon: WarningIcon}
	infoMessage    = message{style: lipgloss.NewStyle().Foreground(noteColor), icon: InfoIcon}
)

func (m message) render(text string) string {
	return m.style.Render(m.icon + " " + text)
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(text string) string { return successMessage.render(text) }

// FormatError formats an error message with icon.
func FormatError(text string) string { return errorMessage.render(text) }

// FormatWarning formats a warning message with icon.
func FormatWarning(text string) string { return warningMessage.render(text) }

// FormatInfo formats an info message with icon.
func FormatInfo(text string) string { return infoMessage.render(text) }

// FormatTitle formats a heading with the scale icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(ScaleIcon + " " + title)
}

// RenderBox renders content under title inside a rounded border.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
