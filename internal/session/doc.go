// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the per-user chat context and runs each turn.
//
// A turn streams the reply from the chat handle, extends it with
// continuations while it looks truncated, then annotates the message with
// its completeness verdict, telemetry and diagram instances. Diagram
// renders and heals run as background jobs grouped by turn.
//
// # Key Types
//
//   - Session: chat handle, conversation and turn generation
//   - ChatHandle: stateful streaming chat capability
//   - Event: chunk, turn and diagram updates for the UI
//
// # Usage
//
//	s := session.New(factory, coordinator, healer, session.Options{AutoContinue: true})
//	defer s.Close()
//	s.SetListener(func(ev session.Event) { program.Send(ev) })
//	msg, err := s.Send(ctx, "Design a 3D printed drone frame")
//
// # Stale Work
//
// Starting a turn, or calling NewChat, bumps the generation and cancels
// everything the previous turn started. Results tagged with an older
// generation are dropped rather than applied.
package session
