// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/makermind-tui/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat interface.
func (m Model) View() string {
	if !m.ready {
		return "Initializing MakerMind..."
	}

	header := components.Header{
		Width:   m.width,
		Model:   m.modelName,
		Version: m.version,
	}.View(m.theme)

	input := m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())

	status := components.StatusBar{
		Width:        m.width,
		Status:       m.status,
		AutoContinue: m.autoContinue,
		AutoHeal:     m.autoHeal,
		Healing:      m.healJobs(),
		Notice:       m.notice,
	}.View(m.theme)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(m.theme),
		m.activityLine(),
		input,
		status,
	)
}

// activityLine shows the spinner while a report generates.
func (m Model) activityLine() string {
	if m.busy {
		return m.spinner.View(m.theme)
	}
	return ""
}
