// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/makermind-tui/internal/export"
	"github.com/jeranaias/makermind-tui/internal/model"
)

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// exportable returns the settled last report or a notice explaining why
// there is none.
func (m Model) exportable() (*model.Message, string) {
	report := m.lastReport()
	switch {
	case report == nil || report.IsEmpty():
		return nil, "Nothing to export yet"
	case report.Streaming():
		return nil, "Wait for the report to finish"
	}
	return report, ""
}

// handleExportCommand exports the last report. The full text is written,
// including the telemetry block the view hides.
func handleExportCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	name := string(export.FormatMarkdown)
	if len(args) > 0 {
		name = args[0]
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}
	report, reason := m.exportable()
	if report == nil {
		m.notice = reason
		return m, nil
	}
	exporter, err := export.New(format)
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}

	m.notice = fmt.Sprintf("Exporting %s...", format)
	doc := export.NewDocument(report.Text(), time.Time{})
	opts := m.exportOpts
	return m, func() tea.Msg {
		path, err := export.ExportToFile(doc, exporter, opts)
		return exportResultMsg{Format: format, Path: path, Err: err}
	}
}

// handleExportResult reports a finished export.
func (m Model) handleExportResult(msg exportResultMsg) (tea.Model, tea.Cmd) {
	conv := m.session.Conversation()
	var openErr *export.OpenError
	switch {
	case msg.Err == nil:
		conv.AddSystemMessage(fmt.Sprintf("[OK] Blueprint exported to %s", msg.Path))
		m.notice = "Exported " + string(msg.Format)
	case errors.As(msg.Err, &openErr):
		conv.AddSystemMessage(fmt.Sprintf("[OK] Blueprint exported to %s (could not open it: %v)", msg.Path, openErr.Err))
		m.notice = "Exported " + string(msg.Format)
	default:
		conv.AddSystemMessage(fmt.Sprintf("[X] Export failed: %v", msg.Err))
		m.notice = "Export failed"
	}
	m.viewport.ScrollToBottom()
	m.refresh()
	return m, nil
}

// =============================================================================
// CLIPBOARD
// =============================================================================

func handleCopyCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	report, reason := m.exportable()
	if report == nil {
		m.notice = reason
		return m, nil
	}
	text := report.Text()
	return m, func() tea.Msg {
		return copyResultMsg{Err: export.CopyToClipboard(text)}
	}
}

func (m Model) handleCopyResult(msg copyResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.notice = "Copy failed: " + msg.Err.Error()
		return m, nil
	}
	m.notice = "Report copied to clipboard"
	return m, nil
}
