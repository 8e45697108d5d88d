// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package turn accumulates one assistant turn and extends it with
// continuation calls when the completeness analysis finds it truncated.
//
// Continuations run strictly one after another, each against the buffer
// the previous one produced. The coordinator stops after MaxAttempts, when
// the text is complete, or when a continuation adds nothing.
package turn
