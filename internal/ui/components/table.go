// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// RenderTable draws a report table. Cells have inline markdown stripped and
// rows shorter than the header are padded. A width above zero caps the
// table width.
func RenderTable(header []string, rows [][]string, width int, theme *styles.Theme) string {
	cols := len(header)
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return ""
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.TableBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			return theme.TableCell
		})

	if len(header) > 0 {
		t = t.Headers(cells(header, cols)...)
	}
	for _, r := range rows {
		t = t.Row(cells(r, cols)...)
	}
	if width > 0 {
		t = t.Width(width)
	}
	return t.String()
}

func cells(row []string, cols int) []string {
	out := make([]string, cols)
	for i := range out {
		if i < len(row) {
			out[i] = document.StripInline(row[i])
		}
	}
	return out
}
