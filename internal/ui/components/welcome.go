// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

const logo = `  __  __       _             __  __ _           _
 |  \/  | __ _| | _____ _ __|  \/  (_)_ __   __| |
 | |\/| |/ _' | |/ / _ \ '__| |\/| | | '_ \ / _' |
 | |  | | (_| |   <  __/ |  | |  | | | | | | (_| |
 |_|  |_|\__,_|_|\_\___|_|  |_|  |_|_|_| |_|\__,_|`

// Commands lists the chat commands with their descriptions, in help order.
var Commands = [][2]string{
	{"/new", "start a new chat"},
	{"/export md|txt|html|json|print", "export the last report"},
	{"/copy", "copy the last report to the clipboard"},
	{"/heal N", "retry healing diagram N of the last report"},
	{"/help", "show this help"},
	{"/quit", "exit"},
}

// HelpText renders the command list.
func HelpText(theme *styles.Theme) string {
	var sb strings.Builder
	for i, c := range Commands {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(theme.StatusKey.Render(padRight(c[0], 32)) + theme.StatusDesc.Render(c[1]))
	}
	return sb.String()
}

// Welcome renders the empty-conversation screen centered in the area.
func Welcome(width, height int, theme *styles.Theme) string {
	var body string
	if width >= 60 {
		body = theme.HeaderTitle.Render(logo) + "\n\n"
	} else {
		body = theme.HeaderTitle.Render("MAKERMIND") + "\n\n"
	}
	body += theme.HeaderSubtitle.Render("Describe what you want to build. MakerMind replies with a full engineering blueprint.") +
		"\n\n" + HelpText(theme)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + spaces(n-w)
	}
	return s + " "
}
