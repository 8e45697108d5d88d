// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document turns generated report text into structured data.
//
// It contains the pieces that never perform I/O:
//   - Analyze inspects accumulated response text and reports truncation defects
//   - Segment partitions text into typed blocks (prose, sections, tables,
//     code, diagrams, formulas) whose spans tile the source exactly
//   - ClassifyLine and InlineSpans drive line-level prose rendering
//   - ParseSections splits a numbered report into its sections
//   - ExtractMetrics reads the trailing telemetry data block
//
// Every function here is deterministic and safe for concurrent use.
package document
