// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// =============================================================================
// TELEMETRY CHARTS
// =============================================================================

const (
	maxLabelWidth = 18
	minBarWidth   = 8
)

// RenderMetrics draws every chart of a metrics set as horizontal bars,
// followed by the summary table. Bar charts scale to the largest value and
// pie charts to the total, with the share shown as a percentage.
func RenderMetrics(m *document.SystemMetrics, width int, theme *styles.Theme) string {
	if m == nil {
		return ""
	}
	charts := m.AllMetrics
	if len(charts) == 0 {
		charts = []document.SystemMetrics{*m}
	}

	var parts []string
	for _, c := range charts {
		if len(c.Data) == 0 {
			continue
		}
		parts = append(parts, renderChart(c, width-4, theme))
	}
	if s := renderSummary(m.Summary, theme); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return ""
	}

	body := theme.ChartTitle.Render("SYSTEM TELEMETRY") + "\n" + strings.Join(parts, "\n\n")
	style := theme.ChartPanel
	if width > 0 {
		style = style.Width(width - 2)
	}
	return style.Render(body)
}

func renderChart(c document.SystemMetrics, width int, theme *styles.Theme) string {
	labelWidth := 0
	for _, d := range c.Data {
		if w := runewidth.StringWidth(d.Name); w > labelWidth {
			labelWidth = w
		}
	}
	if labelWidth > maxLabelWidth {
		labelWidth = maxLabelWidth
	}

	values := make([]string, len(c.Data))
	valueWidth := 0
	total := c.Total()
	var peak float64
	for i, d := range c.Data {
		values[i] = formatValue(d.Value, c.Unit)
		if c.Type == document.ChartPie && total > 0 {
			values[i] += " (" + strconv.FormatFloat(d.Value/total*100, 'f', 1, 64) + "%)"
		}
		if w := runewidth.StringWidth(values[i]); w > valueWidth {
			valueWidth = w
		}
		if d.Value > peak {
			peak = d.Value
		}
	}

	barWidth := width - labelWidth - valueWidth - 2
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	scale := peak
	if c.Type == document.ChartPie {
		scale = total
	}

	var sb strings.Builder
	title := c.Title
	if title == "" {
		title = "Metrics"
	}
	sb.WriteString(theme.ChartLabel.Render(title + " [" + string(chartType(c.Type)) + "]"))
	for i, d := range c.Data {
		var pct float64
		if scale > 0 {
			pct = d.Value / scale * 100
		}
		color := lipgloss.TerminalColor(styles.ChartColor(i))
		if d.Fill != "" {
			color = lipgloss.Color(d.Fill)
		}
		label := runewidth.FillRight(runewidth.Truncate(d.Name, labelWidth, "…"), labelWidth)
		sb.WriteString("\n")
		sb.WriteString(theme.ChartLabel.Render(label))
		sb.WriteString(" ")
		sb.WriteString(lipgloss.NewStyle().Foreground(color).Render(styles.RenderProgressBar(barWidth, pct)))
		sb.WriteString(" ")
		sb.WriteString(theme.ChartValue.Render(values[i]))
	}
	return sb.String()
}

func renderSummary(summary map[string]string, theme *styles.Theme) string {
	if len(summary) == 0 {
		return ""
	}
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = theme.ChartLabel.Render(k+": ") + theme.ChartValue.Render(summary[k])
	}
	return strings.Join(lines, "\n")
}

func chartType(t document.ChartType) document.ChartType {
	if t == "" {
		return document.ChartBar
	}
	return t
}

func formatValue(v float64, unit string) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if unit != "" {
		s += " " + unit
	}
	return s
}
