// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// RenderFormula draws math converted to unicode. Display formulas get their
// own indented block; inline ones are styled in place.
func RenderFormula(source string, display bool, theme *styles.Theme) string {
	text := document.LatexToUnicode(strings.TrimSpace(source))
	if display {
		return theme.FormulaBlock.Render(text)
	}
	return theme.Formula.Render(text)
}
