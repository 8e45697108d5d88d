// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"regexp"
	"strings"
)

// =============================================================================
// LATEX TO UNICODE
// =============================================================================

var (
	fracPattern     = regexp.MustCompile(`\\frac\{([^}]+)\}\{([^}]+)\}`)
	sqrtPattern     = regexp.MustCompile(`\\sqrt\{([^}]+)\}`)
	subGroupPattern = regexp.MustCompile(`_\{([^}]+)\}`)
	subCharPattern  = regexp.MustCompile(`_([a-zA-Z0-9])`)
	supGroupPattern = regexp.MustCompile(`\^\{([^}]+)\}`)
	supCharPattern  = regexp.MustCompile(`\^([a-zA-Z0-9])`)
	textCmdPattern  = regexp.MustCompile(`\\(?:text|mathrm|mathbf|operatorname)\{([^}]+)\}`)
)

// latexSymbols lists longer commands before their prefixes (\leftarrow before \left).
var latexSymbols = strings.NewReplacer(
	`\approx`, "≈", `\times`, "×", `\cdot`, "·", `\pm`, "±", `\leq`, "≤", `\geq`, "≥",
	`\neq`, "≠", `\infty`, "∞", `\sum`, "Σ", `\prod`, "Π", `\int`, "∫", `\partial`, "∂",
	`\rightarrow`, "→", `\leftarrow`, "←", `\Rightarrow`, "⇒", `\to`, "→", `\degree`, "°", `\circ`, "°",
	`\alpha`, "α", `\beta`, "β", `\gamma`, "γ", `\Delta`, "Δ", `\delta`, "δ", `\epsilon`, "ε",
	`\eta`, "η", `\theta`, "θ", `\lambda`, "λ", `\mu`, "μ", `\pi`, "π", `\rho`, "ρ",
	`\sigma`, "σ", `\tau`, "τ", `\phi`, "φ", `\omega`, "ω", `\Omega`, "Ω",
	`\left`, "", `\right`, "", `\,`, " ", `\;`, " ", `\quad`, "  ",
)

var superscripts = strings.NewReplacer(
	"0", "⁰", "1", "¹", "2", "²", "3", "³", "4", "⁴", "5", "⁵", "6", "⁶", "7", "⁷", "8", "⁸", "9", "⁹",
	"+", "⁺", "-", "⁻", "n", "ⁿ", "i", "ⁱ",
)

var subscripts = strings.NewReplacer(
	"0", "₀", "1", "₁", "2", "₂", "3", "₃", "4", "₄", "5", "₅", "6", "₆", "7", "₇", "8", "₈", "9", "₉",
	"+", "₊", "-", "₋", "a", "ₐ", "e", "ₑ", "o", "ₒ", "x", "ₓ", "i", "ᵢ", "n", "ₙ", "m", "ₘ", "t", "ₜ",
)

// LatexToUnicode converts common LaTeX math notation into readable plain
// text for terminal and text-export display. Unsupported commands are left
// in place.
func LatexToUnicode(latex string) string {
	s := textCmdPattern.ReplaceAllString(latex, "$1")
	s = fracPattern.ReplaceAllString(s, "($1)/($2)")
	s = sqrtPattern.ReplaceAllString(s, "√($1)")
	s = latexSymbols.Replace(s)
	s = supGroupPattern.ReplaceAllStringFunc(s, func(m string) string {
		return scriptOrCaret(m[2:len(m)-1], superscripts, "^")
	})
	s = supCharPattern.ReplaceAllStringFunc(s, func(m string) string {
		return scriptOrCaret(m[1:], superscripts, "^")
	})
	s = subGroupPattern.ReplaceAllStringFunc(s, func(m string) string {
		return scriptOrCaret(m[2:len(m)-1], subscripts, "_")
	})
	s = subCharPattern.ReplaceAllStringFunc(s, func(m string) string {
		return scriptOrCaret(m[1:], subscripts, "_")
	})
	return strings.TrimSpace(s)
}

// scriptOrCaret maps every rune of s through r. When any rune has no
// script form the plain marker notation is kept instead.
func scriptOrCaret(s string, r *strings.Replacer, marker string) string {
	mapped := r.Replace(s)
	for _, c := range mapped {
		if c < 0x80 {
			if len(s) == 1 {
				return marker + s
			}
			return marker + "(" + s + ")"
		}
	}
	return mapped
}
