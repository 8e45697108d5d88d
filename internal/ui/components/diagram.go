// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
	"github.com/jeranaias/makermind-tui/internal/util"
)

// =============================================================================
// DIAGRAM PANEL
// =============================================================================

// DiagramPanel renders one mermaid diagram of a report with its heal state.
// A terminal cannot draw the rendered image, so the panel shows the source
// that produced it along with the status.
type DiagramPanel struct {
	// Index is the 1-based diagram number used by /heal.
	Index   int
	Grammar string
	// Source is the block as written. It is shown until a state exists.
	Source string
	// State is nil while the diagram is still streaming or not yet rendered.
	State       *diagram.State
	MaxAttempts int
	Width       int
}

// Badge returns the status label and its style.
func (p DiagramPanel) Badge(theme *styles.Theme) string {
	s := p.State
	switch {
	case s == nil:
		return theme.BadgeInfo.Render("RENDERING")
	case s.Status == diagram.StatusHealing:
		return theme.BadgeHealing.Render(fmt.Sprintf("HEALING %d/%d", s.Attempts, p.MaxAttempts))
	case s.Status == diagram.StatusHealed:
		return theme.BadgeHealed.Render("AUTO-HEALED")
	case s.Status == diagram.StatusFailed:
		return theme.BadgeFailed.Render("HEAL FAILED")
	case s.Failing():
		return theme.BadgeFailed.Render("RENDER ERROR")
	case s.Rendered:
		return theme.BadgeRendered.Render("RENDERED")
	default:
		return theme.BadgeInfo.Render("PENDING")
	}
}

// CanRetry reports whether a manual heal would be accepted.
func (p DiagramPanel) CanRetry() bool {
	s := p.State
	if s == nil || s.Status == diagram.StatusHealing || !s.Failing() {
		return false
	}
	return p.MaxAttempts <= 0 || s.Attempts < p.MaxAttempts
}

// Render draws the panel.
func (p DiagramPanel) Render(theme *styles.Theme) string {
	width := p.Width
	if width <= 0 {
		width = 80
	}

	grammar := p.Grammar
	if grammar == "" {
		grammar = "diagram"
	}
	label := "DIAGRAM"
	if p.Index > 0 {
		label = fmt.Sprintf("DIAGRAM %d", p.Index)
	}
	title := theme.DiagramTitle.Render(label + " · " + strings.ToUpper(grammar))

	source := p.Source
	if p.State != nil {
		source = p.State.DisplaySource()
	}

	var sb strings.Builder
	sb.WriteString(title + "  " + p.Badge(theme))
	sb.WriteString("\n")
	code := CodeBlock{Code: source, MaxWidth: width - 4}
	sb.WriteString(code.Render(theme))

	if s := p.State; s != nil && s.Failing() && s.LastError != "" {
		sb.WriteString("\n")
		for _, line := range util.Wrap(s.LastError, width-6) {
			sb.WriteString(theme.DiagramError.Render(line) + "\n")
		}
		if p.CanRetry() {
			sb.WriteString(theme.DiagramHint.Render(fmt.Sprintf("/heal %d to retry", p.Index)))
		} else if s.Status == diagram.StatusFailed {
			sb.WriteString(theme.DiagramHint.Render(fmt.Sprintf("%d heal attempts used", s.Attempts)))
		}
	}

	return theme.DiagramPanel.Width(width - 2).Render(strings.TrimRight(sb.String(), "\n"))
}
