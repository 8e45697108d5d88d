// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// Header is the top bar with the product name and active model.
type Header struct {
	Width   int
	Model   string
	Version string
}

// View renders the header.
func (h Header) View(theme *styles.Theme) string {
	left := theme.HeaderTitle.Render("MAKERMIND") + " " + theme.HeaderSubtitle.Render("engineering intelligence")
	right := theme.HeaderSubtitle.Render(h.Model)
	if h.Version != "" {
		right += theme.Muted.Render(" · " + h.Version)
	}

	width := h.Width
	if width <= 0 {
		width = 80
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return theme.Header.Width(width).Render(left)
	}
	return theme.Header.Width(width).Render(left + spaces(gap) + right)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
