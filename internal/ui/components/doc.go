// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders the pieces of the MakerMind chat screen.
//
// RenderReport walks a segmented report and draws each block: section
// headers, tables through lipgloss/table, chroma-highlighted code, formulas
// converted to unicode, and diagram panels carrying their heal status.
// RenderMetrics draws the report telemetry as bar charts. MessageView,
// Header, StatusBar, Spinner, and Welcome make up the rest of the screen.
//
// Components are plain render functions over a *styles.Theme. The chat
// model owns all state.
package components
