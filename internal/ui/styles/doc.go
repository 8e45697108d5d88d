// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the MakerMind TUI.

Colors use Lip Gloss AdaptiveColor so the same palette works on light and
dark terminals. The theme mode from configuration can force either variant.

# Palette (colors.go)

  - Teal: brand accent, section headers, table headers
  - Cyan: inline code, formulas, user highlights
  - Emerald: healed diagrams, success
  - Amber: healing in progress, partial reports
  - Rose: failed diagrams, errors
  - Graphite: panel backgrounds and borders

# Theme (theme.go)

NewTheme builds every lipgloss style the components use:

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.SectionHeader.Render("1. PROJECT UNDERSTANDING")

# Animations (animations.go)

ScanSpinner is the frame set shown while a report streams. RenderProgressBar
draws the horizontal bars of telemetry charts.
*/
package styles
