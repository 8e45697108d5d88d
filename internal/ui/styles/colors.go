// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

// Teal - Primary accent, section headers, assistant label
var Teal = lipgloss.AdaptiveColor{Light: "#2C7A7B", Dark: "#38B2AC"}

// Cyan - Inline code, formulas, user highlights
var Cyan = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#4FD1C5"}

// Electric - Title accent
var Electric = lipgloss.AdaptiveColor{Light: "#0B9E8A", Dark: "#0EE7C7"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Emerald - Success, healed diagrams
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Amber - Healing in progress, partial reports
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose - Errors, failed diagrams
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Black - Main background
var Black = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#020405"}

// Graphite - Panels and code blocks
var Graphite = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#0A0C10"}

// Border - Panel borders and separators
var Border = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#2A2F33"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#DDE1E7"}

// TextSecondary - Labels
var TextSecondary = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#A0AAB6"}

// TextMuted - Hints, timestamps, stats
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#7E8A98"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#020405"}

// ChartPalette colors chart series that carry no fill of their own.
var ChartPalette = []lipgloss.AdaptiveColor{Teal, Amber, Cyan, Rose, Emerald, TextSecondary}

// ChartColor returns the palette color for series i, cycling.
func ChartColor(i int) lipgloss.AdaptiveColor {
	if i < 0 {
		i = -i
	}
	return ChartPalette[i%len(ChartPalette)]
}

// =============================================================================
// ACCESSIBILITY: shape indicators alongside color
// =============================================================================

// StatusIndicatorSet contains text indicators for status states.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
}

// StatusIndicators are ASCII so they survive any terminal font.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
}

// RenderSuccess renders a success message with its indicator.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error message with its indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning message with its indicator.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).
		Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders an info message with its indicator.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Cyan).Bold(true).
		Render(StatusIndicators.Info + " " + message)
}
