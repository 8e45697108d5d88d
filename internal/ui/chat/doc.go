// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view of the MakerMind TUI.

The chat package implements the Bubble Tea model that drives a session:
it sends operator requests, follows streamed report text, shows diagram
heal progress, and runs the slash commands.

# Key Components

## Model (model.go)

The Model holds the widgets (header, viewport, textarea input, spinner,
status bar) and the session it drives. Session events arrive through an
event bridge rather than direct calls, so all state changes happen on the
Bubble Tea loop.

## Event Bridge (streaming.go)

Session listeners run on turn and heal goroutines. Chunk events only mark
the view dirty and are redrawn by a frame tick at about 30fps; every other
event is queued and delivered as a tea.Msg in order.

## Commands (commands.go)

	/new                          start a new chat
	/export md|txt|html|json|print export the last report
	/copy                         copy the last report to the clipboard
	/heal N                       retry diagram N of the last report
	/help                         list commands
	/quit                         exit

# Usage

	m := chat.New(chat.Options{
		Session:   sess,
		Theme:     styles.NewTheme(cfg.UI.Theme),
		ModelName: cfg.Gemini.ChatModel,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}

Configuration reloads are delivered with p.Send(chat.ConfigReloadedMsg{...}).
*/
package chat
