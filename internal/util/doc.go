// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides display-width string helpers and crash-safe file
// writes.
//
// # Key Functions
//
//   - TruncateWidth, PadRight, Wrap: terminal column aware layout
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - AtomicWriteFile: write-then-rename with fsync
//
// # Usage
//
//	cell := util.PadRight(util.TruncateWidth(name, 20), 20)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
