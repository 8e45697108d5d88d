// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/makermind-tui/internal/config"
	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/export"
	"github.com/jeranaias/makermind-tui/internal/model"
	"github.com/jeranaias/makermind-tui/internal/session"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// sessionEventMsg delivers one queued session event.
type sessionEventMsg struct {
	Event session.Event
}

// turnSettledMsg is returned when Session.Send returns.
type turnSettledMsg struct {
	Message *model.Message
	Err     error
}

// healResultMsg is returned when a manual heal settles.
type healResultMsg struct {
	Index int
	State diagram.State
	Err   error
}

// frameTickMsg triggers a redraw of streamed text.
type frameTickMsg time.Time

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// exportResultMsg reports a finished export.
type exportResultMsg struct {
	Format export.Format
	Path   string
	Err    error
}

// copyResultMsg reports a finished clipboard copy.
type copyResultMsg struct {
	Err error
}

// =============================================================================
// EXTERNAL MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a configuration reloaded from disk. Only the
// theme, word wrap, auto-heal and auto-continue settings are applied.
type ConfigReloadedMsg struct {
	Config *config.Config
}
