// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

var upper = cases.Upper(language.English)

// RenderSection draws a numbered report section header across width.
func RenderSection(number int, title string, width int, theme *styles.Theme) string {
	badge := theme.SectionNumber.Render(strconv.Itoa(number))
	style := theme.SectionHeader
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(badge + upper.String(document.StripInline(title)))
}
