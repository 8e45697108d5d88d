// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the in-memory conversation and message types.
//
// Conversations are never persisted; a new chat replaces the conversation
// wholesale.
//
// # Key Types
//
//   - Conversation: ordered messages of one chat
//   - Message: one turn's text plus its verdict, metrics, and diagrams
//   - ModelInfo: a known generation model
//   - Role: user, assistant, or system
package model
