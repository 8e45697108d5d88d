// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/session"
	"github.com/jeranaias/makermind-tui/internal/ui/components"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command.
type CommandHandler func(m Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names to their handler functions.
var commandHandlers = map[string]CommandHandler{
	"new":    handleNewCommand,
	"clear":  handleNewCommand,
	"export": handleExportCommand,
	"e":      handleExportCommand,
	"copy":   handleCopyCommand,
	"heal":   handleHealCommand,
	"help":   handleHelpCommand,
	"h":      handleHelpCommand,
	"?":      handleHelpCommand,
	"quit":   handleQuitCommand,
	"q":      handleQuitCommand,
	"exit":   handleQuitCommand,
}

// handleCommand parses a slash command and dispatches it.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}

	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	handler, ok := commandHandlers[name]
	if !ok {
		m.notice = "Unknown command " + parts[0]
		if suggestion, found := components.SuggestCommand(parts[0]); found {
			m.notice += ". Did you mean " + suggestion + "?"
		}
		return m, nil
	}
	return handler(m, parts[1:])
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func handleNewCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	m.session.NewChat()
	m.status = components.StatusReady
	m.lastError = nil
	m.healing = 0
	m.notice = "New chat started"
	m.viewport.ScrollToBottom()
	m.refresh()
	return m, nil
}

func handleQuitCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m.quit()
}

func handleHelpCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	var sb strings.Builder
	sb.WriteString("Commands:")
	for _, c := range components.Commands {
		sb.WriteString(fmt.Sprintf("\n  %-32s %s", c[0], c[1]))
	}
	sb.WriteString("\n\nEnter sends, Alt+Enter adds a line, Ctrl+C cancels a report or quits, PgUp/PgDn scroll.")
	m.session.Conversation().AddSystemMessage(sb.String())
	m.viewport.ScrollToBottom()
	m.refresh()
	return m, nil
}

// =============================================================================
// HEAL COMMAND
// =============================================================================

// handleHealCommand retries diagram N of the last report. Without an
// argument it picks the only failing diagram, if there is exactly one.
func handleHealCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	var n int
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			m.notice = "Usage: /heal N (diagram number)"
			return m, nil
		}
		n = v
	} else {
		n = m.onlyFailingDiagram()
		if n == 0 {
			m.notice = "Usage: /heal N (diagram number)"
			return m, nil
		}
	}

	m.healing++
	m.notice = fmt.Sprintf("Healing diagram %d...", n)
	m.refresh()

	sess, ctx := m.session, m.ctx
	return m, func() tea.Msg {
		state, err := sess.RetryDiagram(ctx, n)
		return healResultMsg{Index: n, State: state, Err: err}
	}
}

// onlyFailingDiagram returns the number of the single failing diagram of
// the last report, or 0.
func (m Model) onlyFailingDiagram() int {
	report := m.lastReport()
	if report == nil {
		return 0
	}
	found := 0
	for i, st := range report.DiagramStates() {
		if st.Failing() {
			if found != 0 {
				return 0
			}
			found = i + 1
		}
	}
	return found
}

func (m Model) handleHealResult(msg healResultMsg) (tea.Model, tea.Cmd) {
	if m.healing > 0 {
		m.healing--
	}
	switch err := msg.Err; {
	case err == nil && msg.State.Status == diagram.StatusHealed:
		m.notice = fmt.Sprintf("Diagram %d healed", msg.Index)
	case err == nil:
		m.notice = fmt.Sprintf("Diagram %d still fails after %d attempts", msg.Index, msg.State.Attempts)
	case errors.Is(err, session.ErrNoDiagram):
		m.notice = fmt.Sprintf("The last report has no diagram %d", msg.Index)
	case errors.Is(err, session.ErrNoRenderer):
		m.notice = "Diagram rendering is disabled"
	case errors.Is(err, diagram.ErrHealInProgress):
		m.notice = fmt.Sprintf("Diagram %d is already healing", msg.Index)
	case errors.Is(err, diagram.ErrNotHealable):
		m.notice = fmt.Sprintf("Diagram %d renders fine", msg.Index)
	case errors.Is(err, diagram.ErrAttemptsExhausted):
		m.notice = fmt.Sprintf("Diagram %d has no heal attempts left", msg.Index)
	default:
		m.notice = fmt.Sprintf("Healing diagram %d failed: %v", msg.Index, err)
	}
	m.refresh()
	return m, nil
}
