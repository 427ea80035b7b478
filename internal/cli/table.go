package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/weightbot/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var resultHeaders = []string{"option", "name", "category", "box_cm", "net_kg", "gross_kg", "vol_5000", "vol_6000", "conf", "delta"}

// RenderResults renders estimate rows as an aligned table.
func RenderResults(rows []model.ResultRow) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.OptionCode,
			r.OptionName,
			string(r.Category),
			r.BoxCm,
			formatKg(r.NetKg),
			formatKg(r.GrossKg),
			formatKg(r.Vol5000),
			formatKg(r.Vol6000),
			fmt.Sprintf("%d", r.Confidence),
			fmt.Sprintf("%+.2f", r.DeltaApplied),
		})
	}
	return renderTable(resultHeaders, cells)
}

// RenderFeedback renders stored feedback entries.
func RenderFeedback(entries []model.FeedbackEntry) string {
	if len(entries) == 0 {
		return SubtleStyle.Render("No feedback recorded yet.")
	}
	cells := make([][]string, 0, len(entries))
	for _, e := range entries {
		cells = append(cells, []string{
			e.OptionKey,
			string(e.Category),
			formatKg(e.Predicted),
			formatKg(e.Actual),
			fmt.Sprintf("%+.3f", e.Delta),
			e.Timestamp.Local().Format(model.TimestampLayout),
		})
	}
	return renderTable([]string{"option_key", "category", "predicted", "actual", "delta", "recorded"}, cells)
}

// RenderDeltas renders per-category corrections ordered by category name.
func RenderDeltas(deltas map[model.Category]float64) string {
	if len(deltas) == 0 {
		return SubtleStyle.Render("No corrections: every category uses its base formula.")
	}
	categories := make([]string, 0, len(deltas))
	for c := range deltas {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	cells := make([][]string, 0, len(categories))
	for _, c := range categories {
		cells = append(cells, []string{c, fmt.Sprintf("%+.3f", deltas[model.Category(c)])})
	}
	return renderTable([]string{"category", "delta_kg"}, cells)
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(joinCells(headers, widths)))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(joinCells(row, widths))
		b.WriteString("\n")
	}
	return b.String()
}

func joinCells(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = TableCellStyle.Render(cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func formatKg(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
