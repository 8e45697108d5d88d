// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// =============================================================================
// CHAT VIEWPORT
// =============================================================================

// ChatViewport is the scrollable conversation area. It follows new content
// until the user scrolls up, and resumes following at the bottom.
type ChatViewport struct {
	viewport   viewport.Model
	autoScroll bool
	ready      bool
}

// NewChatViewport creates a viewport that follows new content.
func NewChatViewport() *ChatViewport {
	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()
	return &ChatViewport{viewport: vp, autoScroll: true}
}

// SetSize updates the dimensions. One line is kept for the scroll indicator.
func (cv *ChatViewport) SetSize(width, height int) {
	if height < 2 {
		height = 2
	}
	cv.viewport.Width = width
	cv.viewport.Height = height - 1
	cv.ready = true
}

// Width returns the content width.
func (cv *ChatViewport) Width() int { return cv.viewport.Width }

// SetContent replaces the rendered conversation.
func (cv *ChatViewport) SetContent(content string) {
	cv.viewport.SetContent(content)
	if cv.autoScroll {
		cv.viewport.GotoBottom()
	}
}

// ScrollToBottom jumps to the end and resumes following.
func (cv *ChatViewport) ScrollToBottom() {
	cv.viewport.GotoBottom()
	cv.autoScroll = true
}

// Following reports whether new content scrolls into view.
func (cv *ChatViewport) Following() bool { return cv.autoScroll }

// Update handles scrolling keys and the mouse wheel.
func (cv *ChatViewport) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			cv.viewport.HalfViewUp()
			cv.autoScroll = false
			return nil
		case "pgdown":
			cv.viewport.HalfViewDown()
			cv.autoScroll = cv.viewport.AtBottom()
			return nil
		case "ctrl+home":
			cv.viewport.GotoTop()
			cv.autoScroll = false
			return nil
		case "ctrl+end":
			cv.ScrollToBottom()
			return nil
		}
		return nil

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			cv.viewport.LineUp(3)
			cv.autoScroll = false
			return nil
		case tea.MouseWheelDown:
			cv.viewport.LineDown(3)
			cv.autoScroll = cv.viewport.AtBottom()
			return nil
		}
	}

	var cmd tea.Cmd
	cv.viewport, cmd = cv.viewport.Update(msg)
	return cmd
}

// View renders the viewport and a position indicator when not at the bottom.
func (cv *ChatViewport) View(theme *styles.Theme) string {
	if !cv.ready {
		return ""
	}
	indicator := ""
	if !cv.viewport.AtBottom() {
		indicator = theme.Muted.Render(fmt.Sprintf("v more below (%d%%) · ctrl+end to follow", int(cv.viewport.ScrollPercent()*100)))
	}
	return cv.viewport.View() + "\n" + indicator
}
