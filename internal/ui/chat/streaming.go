// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/makermind-tui/internal/session"
)

// frameInterval caps redraws of streamed text at about 30fps.
const frameInterval = 33 * time.Millisecond

// eventQueueSize bounds queued non-chunk events before publishers block.
const eventQueueSize = 64

// =============================================================================
// EVENT BRIDGE
// =============================================================================

// eventBridge moves session events onto the Bubble Tea loop.
//
// Chunk text is already appended to the message by the session, so a chunk
// only marks the view dirty; the frame tick picks it up. This batches
// hundreds of chunks per second into one redraw per frame. All other
// events keep their order through a buffered channel.
//
// Thread-safety: publish is called from turn and heal goroutines while
// next and takeDirty run on the Bubble Tea loop.
type eventBridge struct {
	events    chan session.Event
	done      chan struct{}
	closeOnce sync.Once
	dirty     atomic.Bool
}

func newEventBridge() *eventBridge {
	return &eventBridge{
		events: make(chan session.Event, eventQueueSize),
		done:   make(chan struct{}),
	}
}

// publish is the session listener.
func (b *eventBridge) publish(ev session.Event) {
	if ev.Kind == session.EventChunk {
		b.dirty.Store(true)
		return
	}
	// RELIABILITY: never block a worker once the UI has gone.
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// next waits for the next queued event. Update re-issues it after every
// event so exactly one waiter is outstanding.
func (b *eventBridge) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-b.events:
			return sessionEventMsg{Event: ev}
		case <-b.done:
			return nil
		}
	}
}

// takeDirty reports and clears pending streamed text.
func (b *eventBridge) takeDirty() bool {
	return b.dirty.Swap(false)
}

// markDirty forces a redraw on the next frame.
func (b *eventBridge) markDirty() {
	b.dirty.Store(true)
}

// close releases blocked publishers and the waiting command.
func (b *eventBridge) close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// =============================================================================
// FRAME TICK
// =============================================================================

// frameTickCmd schedules the next redraw of streamed text.
func frameTickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}
