// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Status represents the current activity.
type Status int

const (
	StatusReady Status = iota
	StatusGenerating
	StatusContinuing
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusGenerating:
		return "Generating"
	case StatusContinuing:
		return "Completing"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// StatusBar is the bottom bar.
type StatusBar struct {
	Width        int
	Status       Status
	AutoContinue bool
	AutoHeal     bool
	// Healing is the number of heal jobs in flight.
	Healing int
	// Notice is a transient message such as an export path.
	Notice string
}

// View renders the status bar. Narrow terminals drop the shortcuts.
func (s StatusBar) View(theme *styles.Theme) string {
	var parts []string

	status := s.Status.String()
	switch s.Status {
	case StatusError:
		parts = append(parts, theme.DiagramError.Render(status))
	case StatusReady:
		parts = append(parts, theme.StatusKey.Render(status))
	default:
		parts = append(parts, theme.Notice.Render(status))
	}

	parts = append(parts,
		toggle("auto-continue", s.AutoContinue, theme),
		toggle("auto-heal", s.AutoHeal, theme))
	if s.Healing > 0 {
		parts = append(parts, theme.Notice.Render("healing "+strconv.Itoa(s.Healing)))
	}
	if s.Notice != "" {
		parts = append(parts, theme.StatusDesc.Render(s.Notice))
	}

	left := strings.Join(parts, theme.Muted.Render(" | "))
	width := s.Width
	if width <= 0 {
		width = 80
	}
	if width >= 100 {
		shortcuts := theme.StatusKey.Render("enter") + theme.StatusDesc.Render(" send  ") +
			theme.StatusKey.Render("ctrl+c") + theme.StatusDesc.Render(" cancel  ") +
			theme.StatusKey.Render("/help")
		if gap := width - lipgloss.Width(left) - lipgloss.Width(shortcuts) - 2; gap > 0 {
			left += spaces(gap) + shortcuts
		}
	}
	return theme.StatusBar.Width(width).MaxHeight(1).Render(left)
}

func toggle(name string, on bool, theme *styles.Theme) string {
	if on {
		return theme.StatusDesc.Render(name + " ") + theme.StatusKey.Render("on")
	}
	return theme.StatusDesc.Render(name + " ") + theme.Muted.Render("off")
}
