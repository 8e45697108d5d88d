// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line   string
		kind   LineKind
		text   string
		level  int
		marker string
	}{
		{"", LineBlank, "", 0, ""},
		{"## Frame Design", LineHeading, "Frame Design", 2, ""},
		{"**Material:** 3K carbon", LineBoldLabel, "3K carbon", 0, ""},
		{"- Motor 2207", LineBullet, "Motor 2207", 0, ""},
		{"    • nested item", LineBullet, "nested item", 2, ""},
		{"3. Solder the ESC", LineNumbered, "Solder the ESC", 0, "3"},
		{"b. Second option", LineLettered, "Second option", 0, "b"},
		{"    continued detail", LineIndented, "continued detail", 2, ""},
		{"Plain sentence here.", LineParagraph, "Plain sentence here.", 0, ""},
		{"#hashtag without space", LineParagraph, "#hashtag without space", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := ClassifyLine(tt.line)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.text, got.Text)
			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, tt.marker, got.Marker)
		})
	}
}

func TestClassifyLine_PriorityOrder(t *testing.T) {
	// A heading wins over a bold label and a bold label over a bullet.
	assert.Equal(t, LineHeading, ClassifyLine("### **Bold** heading").Kind)
	assert.Equal(t, LineBoldLabel, ClassifyLine("**Note** - read this").Kind)
	// An indented numbered line is still a numbered item.
	assert.Equal(t, LineNumbered, ClassifyLine("   2. indented step").Kind)
}

func TestClassifyLines(t *testing.T) {
	lines := ClassifyLines("# Title\n\n- a\n1. b")
	got := make([]LineKind, len(lines))
	for i, l := range lines {
		got[i] = l.Kind
	}
	assert.Equal(t, []LineKind{LineHeading, LineBlank, LineBullet, LineNumbered}, got)
}

func TestInlineSpans(t *testing.T) {
	spans := InlineSpans("Use **PETG** with `0.4mm` nozzle at $T_{bed}$ and *slow* speed")
	want := []Inline{
		{Kind: InlineText, Text: "Use "},
		{Kind: InlineBold, Text: "PETG"},
		{Kind: InlineText, Text: " with "},
		{Kind: InlineCode, Text: "0.4mm"},
		{Kind: InlineText, Text: " nozzle at "},
		{Kind: InlineMath, Text: "T_{bed}"},
		{Kind: InlineText, Text: " and "},
		{Kind: InlineItalic, Text: "slow"},
		{Kind: InlineText, Text: " speed"},
	}
	assert.Equal(t, want, spans)
}

func TestInlineSpans_DisplayMath(t *testing.T) {
	spans := InlineSpans("$$E = mc^2$$")
	assert.Equal(t, []Inline{{Kind: InlineMath, Text: "E = mc^2", Display: true}}, spans)
}

func TestInlineSpans_PlainText(t *testing.T) {
	assert.Equal(t, []Inline{{Kind: InlineText, Text: "costs 5 dollars"}}, InlineSpans("costs 5 dollars"))
	assert.Nil(t, InlineSpans(""))
}

func TestStripInline(t *testing.T) {
	assert.Equal(t, "Use PETG at 240 °C", StripInline("Use **PETG** at `240` $\\degree$C"))
}

func TestLatexToUnicode(t *testing.T) {
	tests := map[string]string{
		`\frac{a}{b}`:         "(a)/(b)",
		`\sqrt{2}`:            "√(2)",
		`m^2`:                 "m²",
		`x^{10}`:              "x¹⁰",
		`V_{in}`:              "Vᵢₙ",
		`\alpha + \beta`:      "α + β",
		`F = m \times a`:      "F = m × a",
		`\text{RPM} \approx 9`: "RPM ≈ 9",
		`x^{ab}`:              "x^(ab)",
	}
	for in, want := range tests {
		assert.Equal(t, want, LatexToUnicode(in), "input %q", in)
	}
}
