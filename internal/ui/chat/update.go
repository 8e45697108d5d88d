// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/makermind-tui/internal/session"
	"github.com/jeranaias/makermind-tui/internal/ui/components"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.viewport.Update(msg)

	case sessionEventMsg:
		m.handleEvent(msg.Event)
		return m, m.bridge.next()

	case turnSettledMsg:
		m.handleTurnSettled(msg)
		return m, nil

	case healResultMsg:
		return m.handleHealResult(msg)

	case exportResultMsg:
		return m.handleExportResult(msg)

	case copyResultMsg:
		return m.handleCopyResult(msg)

	case ConfigReloadedMsg:
		m.applyConfig(msg)
		return m, nil

	case frameTickMsg:
		if m.bridge.takeDirty() {
			m.refresh()
		}
		if m.busy {
			return m, frameTickCmd()
		}
		m.ticking = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Cancel):
		if m.busy {
			m.session.CancelTurn()
			m.notice = "Generation canceled"
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		m.notice = ""
		return m, nil

	case m.keys.isScrollKey(msg):
		return m, m.viewport.Update(msg)

	case key.Matches(msg, m.keys.Complete):
		m.completeCommand()
		return m, nil

	case key.Matches(msg, m.keys.Newline):
		m.input.InsertString("\n")
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}

// submit sends the input as a request or runs it as a command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.handleCommand(text)
	}
	if m.busy {
		m.notice = "A report is still generating; press Ctrl+C to cancel it"
		return m, nil
	}
	m.input.Reset()
	return m.startTurn(text)
}

// completeCommand completes a partially typed command name.
func (m *Model) completeCommand() {
	value := m.input.Value()
	if !strings.HasPrefix(value, "/") || strings.ContainsAny(value, " \n") {
		return
	}
	matches := components.CompleteCommand(value)
	switch len(matches) {
	case 0:
		m.notice = "No command matches " + value
	case 1:
		m.input.SetValue(matches[0] + " ")
		m.notice = ""
	default:
		m.notice = strings.Join(matches, "  ")
	}
}

// =============================================================================
// TURNS
// =============================================================================

// startTurn runs Session.Send in a command. Streamed text reaches the view
// through the event bridge while the command blocks.
func (m Model) startTurn(text string) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = components.StatusGenerating
	m.lastError = nil
	m.notice = ""
	m.viewport.ScrollToBottom()
	m.spinner.SetMessage("Generating blueprint")

	sess, ctx := m.session, m.ctx
	send := func() tea.Msg {
		msg, err := sess.Send(ctx, text)
		return turnSettledMsg{Message: msg, Err: err}
	}

	m.bridge.markDirty()
	return m, tea.Batch(send, m.spinner.Start(), m.ensureTicking())
}

// ensureTicking starts the frame tick unless it already runs.
func (m *Model) ensureTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return frameTickCmd()
}

func (m *Model) handleEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventContinuing:
		m.status = components.StatusContinuing
		m.spinner.SetMessage("Completing truncated report")
	case session.EventTurnFailed:
		m.status = components.StatusError
		m.lastError = ev.Err
	}
	m.refresh()
}

func (m *Model) handleTurnSettled(msg turnSettledMsg) {
	m.busy = false
	m.spinner.Stop()

	switch err := msg.Err; {
	case err == nil, errors.Is(err, session.ErrTurnSuperseded), errors.Is(err, session.ErrEmptyMessage):
		m.status = components.StatusReady
	case errors.Is(err, context.Canceled):
		m.status = components.StatusReady
		m.notice = "Generation canceled; partial report kept"
	default:
		m.status = components.StatusError
		m.lastError = err
	}
	m.refresh()
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func (m *Model) applyConfig(msg ConfigReloadedMsg) {
	cfg := msg.Config
	if cfg == nil {
		return
	}
	if mode := cfg.UI.Theme; mode != "" {
		m.theme = styles.NewTheme(mode)
	}
	m.wordWrap = cfg.UI.WordWrap
	if cfg.Diagram.AutoHeal != m.autoHeal {
		m.autoHeal = cfg.Diagram.AutoHeal
		m.session.SetAutoHeal(m.autoHeal)
	}
	if cfg.Completion.AutoContinue != m.autoContinue {
		m.autoContinue = cfg.Completion.AutoContinue
		m.session.SetAutoContinue(m.autoContinue)
	}
	m.notice = "Configuration reloaded"
	m.refresh()
}

// =============================================================================
// LAYOUT
// =============================================================================

const (
	headerHeight   = 2
	inputHeight    = 5
	activityHeight = 1
	statusHeight   = 1
)

// resize lays out the viewport between the header and the input.
func (m *Model) resize() {
	bodyHeight := m.height - headerHeight - inputHeight - activityHeight - statusHeight
	m.viewport.SetSize(m.width, bodyHeight)
	m.input.SetWidth(m.width - 4)
}

// refresh re-renders the conversation into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	width := m.viewport.Width()
	conv := m.session.Conversation()

	var content string
	if conv.IsEmpty() {
		content = components.Welcome(width, m.height-headerHeight-inputHeight-activityHeight-statusHeight-1, m.theme)
	} else {
		content = components.RenderMessages(conv.Messages(), width, m.maxHealAttempts, m.wordWrap, m.theme)
	}
	if m.lastError != nil {
		content += "\n\n" + components.RenderError("Generation failed", m.lastError, width, m.theme)
	}
	m.viewport.SetContent(content)
}
