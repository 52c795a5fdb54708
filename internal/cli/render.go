package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/outlier"
)

// RenderTable lays rows out in aligned columns under a header row.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = TableCellStyle.Width(widths[i] + 2).Render(h)
	}
	lines := []string{TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))}

	for _, row := range rows {
		cells = cells[:0]
		for i := range headers {
			var v string
			if i < len(row) {
				v = row[i]
			}
			cells = append(cells, TableCellStyle.Width(widths[i]+2).Render(v))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return strings.Join(lines, "\n")
}

// RenderMetrics renders evaluation metrics in a box.
func RenderMetrics(title string, m model.Metrics) string {
	content := RenderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"MSE", formatFloat(m.MSE)},
			{"MAE", formatFloat(m.MAE)},
			{"R2", strconv.FormatFloat(m.R2, 'f', 4, 64)},
		},
	)
	return RenderBox(ChartIcon+" "+title, content)
}

// StatsHeaders are the columns of a feature statistics table.
var StatsHeaders = []string{"Feature", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max", "IQR"}

// StatsRow renders one feature summary as a StatsHeaders row.
func StatsRow(feature string, s outlier.Summary) []string {
	return []string{
		feature,
		strconv.Itoa(s.Count),
		formatFloat(s.Mean),
		formatFloat(s.Std),
		formatFloat(s.Min),
		formatFloat(s.Q1),
		formatFloat(s.Median),
		formatFloat(s.Q3),
		formatFloat(s.Max),
		formatFloat(s.IQR),
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
