// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini is the hosted generation capability: a stateful chat
// stream for report turns, a stateless stream for continuations, and a
// one-shot diagram repair call.
//
// Stateless calls never touch chat history. Transient transport errors
// are retried with backoff, but only until the first chunk was delivered;
// a partially streamed answer is never replayed.
package gemini
