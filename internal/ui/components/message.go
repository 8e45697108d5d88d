// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/model"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE VIEW
// =============================================================================

// MessageView renders one conversation message.
type MessageView struct {
	Message         *model.Message
	Width           int
	MaxHealAttempts int
	WordWrap        bool
	ShowTimestamp   bool
	// Cursor is appended while the message streams.
	Cursor string
}

// NewMessageView creates a view with default settings.
func NewMessageView(msg *model.Message, width int) MessageView {
	return MessageView{
		Message:         msg,
		Width:           width,
		MaxHealAttempts: 3,
		WordWrap:        true,
		ShowTimestamp:   true,
		Cursor:          "▌",
	}
}

// View renders the message.
func (v MessageView) View(theme *styles.Theme) string {
	if v.Message == nil {
		return ""
	}
	switch v.Message.Role {
	case model.RoleUser:
		return v.renderUser(theme)
	case model.RoleAssistant:
		return v.renderAssistant(theme)
	default:
		return v.renderSystem(theme)
	}
}

func (v MessageView) width() int {
	if v.Width <= 0 {
		return 80
	}
	return v.Width
}

func (v MessageView) label(theme *styles.Theme, style func(string) string) string {
	label := style(v.Message.Role.DisplayName())
	if v.ShowTimestamp && !v.Message.Timestamp.IsZero() {
		label += " " + theme.Muted.Render(v.Message.Timestamp.Format("15:04:05"))
	}
	return label
}

func (v MessageView) renderUser(theme *styles.Theme) string {
	body := theme.UserBody.Width(v.width() - 2).Render(v.Message.Text())
	return v.label(theme, theme.UserLabel.Render) + "\n" + body
}

func (v MessageView) renderSystem(theme *styles.Theme) string {
	return theme.SystemBubble.Width(v.width() - 4).Render(v.Message.Text())
}

func (v MessageView) renderAssistant(theme *styles.Theme) string {
	msg := v.Message
	streaming := msg.Streaming()
	text := msg.Text()

	var sb strings.Builder
	sb.WriteString(v.label(theme, theme.AssistantLabel.Render))
	sb.WriteString("\n")

	display := text
	if !streaming {
		display = document.StripDataBlocks(text)
	}
	sb.WriteString(RenderReport(display, ReportOptions{
		Width:           v.width(),
		Diagrams:        msg.DiagramStates(),
		MaxHealAttempts: v.MaxHealAttempts,
		WordWrap:        v.WordWrap,
		Highlight:       !streaming,
	}, theme))
	if streaming {
		sb.WriteString(theme.Spinner.Render(v.Cursor))
		return sb.String()
	}

	if chart := RenderMetrics(msg.Metrics, v.width(), theme); chart != "" {
		sb.WriteString("\n" + chart)
	}

	var footer []string
	for _, b := range msg.Badges() {
		footer = append(footer, badgeStyle(b, theme).Render(b))
	}
	if stats := msg.FormatStats(); stats != "" {
		footer = append(footer, theme.MessageStats.Render(stats))
	}
	if len(footer) > 0 {
		sb.WriteString("\n" + strings.Join(footer, " "))
	}
	return sb.String()
}

func badgeStyle(badge string, theme *styles.Theme) lipgloss.Style {
	switch {
	case strings.HasPrefix(badge, "AUTO-HEALED"), strings.HasPrefix(badge, "AUTO-COMPLETED"):
		return theme.BadgeHealed
	case strings.HasPrefix(badge, "PARTIAL"):
		return theme.BadgeHealing
	case badge == "FAILED":
		return theme.BadgeFailed
	default:
		return theme.BadgeInfo
	}
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// RenderMessages renders a conversation separated by blank lines.
func RenderMessages(msgs []*model.Message, width, maxHealAttempts int, wrap bool, theme *styles.Theme) string {
	views := make([]string, 0, len(msgs))
	for _, m := range msgs {
		v := NewMessageView(m, width)
		v.MaxHealAttempts = maxHealAttempts
		v.WordWrap = wrap
		views = append(views, v.View(theme))
	}
	return strings.Join(views, "\n\n")
}
