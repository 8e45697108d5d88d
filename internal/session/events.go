// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/makermind-tui/internal/diagram"

// EventKind identifies what an Event reports.
type EventKind int

const (
	// EventChunk carries streamed text in Text.
	EventChunk EventKind = iota
	// EventTurnDone reports a settled turn.
	EventTurnDone
	// EventTurnFailed reports a transport failure in Err.
	EventTurnFailed
	// EventDiagram carries a diagram state snapshot.
	EventDiagram
	// EventContinuing reports that a truncated reply is being completed.
	EventContinuing
)

func (k EventKind) String() string {
	switch k {
	case EventChunk:
		return "chunk"
	case EventTurnDone:
		return "turn_done"
	case EventTurnFailed:
		return "turn_failed"
	case EventDiagram:
		return "diagram"
	case EventContinuing:
		return "continuing"
	default:
		return "unknown"
	}
}

// Event is published to the session listener. Events of one turn carry
// that turn's generation.
type Event struct {
	Kind       EventKind
	Generation uint64
	MessageID  string
	Text       string
	Diagram    diagram.State
	Err        error
}
