// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"regexp"
	"strings"
)

// =============================================================================
// LINE CLASSIFICATION
// =============================================================================

// LineKind is the presentation class of one prose line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeading
	LineBoldLabel
	LineBullet
	LineNumbered
	LineLettered
	LineIndented
	LineParagraph
)

// String returns the name of the line kind.
func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineHeading:
		return "heading"
	case LineBoldLabel:
		return "bold-label"
	case LineBullet:
		return "bullet"
	case LineNumbered:
		return "numbered"
	case LineLettered:
		return "lettered"
	case LineIndented:
		return "indented"
	default:
		return "paragraph"
	}
}

// Line is a classified prose line.
type Line struct {
	Kind LineKind
	// Level is the heading level (1-3) or the indentation depth.
	Level int
	// Marker is the number or letter of a numbered or lettered item.
	Marker string
	// Label is the bold text of a bold-label line.
	Label string
	// Text is the line content with its marker removed.
	Text string
}

var (
	headingPattern   = regexp.MustCompile(`^(#{1,3})\s`)
	boldLabelPattern = regexp.MustCompile(`^\*\*([^*]+)\*\*:?\s*(.*)$`)
	bulletPattern    = regexp.MustCompile(`^[-•*]\s+(.*)$`)
	numberedPattern  = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)
	letteredPattern  = regexp.MustCompile(`^([a-zA-Z])\.\s+(.*)$`)
	indentPattern    = regexp.MustCompile(`^(\s{2,})(.*)$`)
)

// ClassifyLine assigns a line to the first matching class in priority
// order: heading, bold label, bullet, numbered, lettered, indented, plain.
func ClassifyLine(line string) Line {
	line = strings.TrimRight(line, "\r")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Line{Kind: LineBlank}
	}

	if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
		return Line{
			Kind:  LineHeading,
			Level: len(m[1]),
			Text:  strings.TrimSpace(strings.TrimLeft(trimmed, "#")),
		}
	}
	if m := boldLabelPattern.FindStringSubmatch(trimmed); m != nil {
		return Line{Kind: LineBoldLabel, Label: strings.TrimSpace(m[1]), Text: strings.TrimSpace(m[2])}
	}
	if m := bulletPattern.FindStringSubmatch(trimmed); m != nil {
		return Line{Kind: LineBullet, Level: indentDepth(line), Text: m[1]}
	}
	if m := numberedPattern.FindStringSubmatch(trimmed); m != nil {
		return Line{Kind: LineNumbered, Marker: m[1], Text: m[2]}
	}
	if m := letteredPattern.FindStringSubmatch(trimmed); m != nil {
		return Line{Kind: LineLettered, Marker: strings.ToLower(m[1]), Text: m[2]}
	}
	if m := indentPattern.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineIndented, Level: indentDepth(line), Text: strings.TrimSpace(m[2])}
	}
	return Line{Kind: LineParagraph, Text: trimmed}
}

// ClassifyLines splits prose on newlines and classifies every line.
func ClassifyLines(prose string) []Line {
	raw := strings.Split(prose, "\n")
	lines := make([]Line, len(raw))
	for i, l := range raw {
		lines[i] = ClassifyLine(l)
	}
	return lines
}

// indentDepth counts two-space indentation steps. A tab counts as one step.
func indentDepth(line string) int {
	spaces := 0
	for _, r := range line {
		switch r {
		case ' ':
			spaces++
		case '\t':
			spaces += 2
		default:
			return spaces / 2
		}
	}
	return spaces / 2
}

// =============================================================================
// INLINE SPANS
// =============================================================================

// InlineKind classifies a run of text inside a line.
type InlineKind int

const (
	InlineText InlineKind = iota
	InlineMath
	InlineCode
	InlineBold
	InlineItalic
)

// Inline is one styled run of a line. Display is set for $$...$$ math.
type Inline struct {
	Kind    InlineKind
	Text    string
	Display bool
}

var inlinePattern = regexp.MustCompile(`(\$\$[^$]+\$\$)|(\$[^$\s][^$]*\$)|(` + "`[^`]+`" + `)|(\*\*[^*]+\*\*)|(\*[^*\s][^*]*\*)|(\b_[^_]+_\b)`)

// InlineSpans tokenizes a line into math, code, bold, italic, and plain runs.
// Delimiters are removed from the returned text.
func InlineSpans(s string) []Inline {
	var out []Inline
	last := 0
	for _, m := range inlinePattern.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			out = append(out, Inline{Kind: InlineText, Text: s[last:m[0]]})
		}
		tok := s[m[0]:m[1]]
		switch {
		case m[2] >= 0:
			out = append(out, Inline{Kind: InlineMath, Text: tok[2 : len(tok)-2], Display: true})
		case m[4] >= 0:
			out = append(out, Inline{Kind: InlineMath, Text: tok[1 : len(tok)-1]})
		case m[6] >= 0:
			out = append(out, Inline{Kind: InlineCode, Text: tok[1 : len(tok)-1]})
		case m[8] >= 0:
			out = append(out, Inline{Kind: InlineBold, Text: tok[2 : len(tok)-2]})
		default:
			out = append(out, Inline{Kind: InlineItalic, Text: tok[1 : len(tok)-1]})
		}
		last = m[1]
	}
	if last < len(s) {
		out = append(out, Inline{Kind: InlineText, Text: s[last:]})
	}
	return out
}

// StripInline removes inline markdown delimiters and returns plain text.
func StripInline(s string) string {
	var sb strings.Builder
	for _, span := range InlineSpans(s) {
		if span.Kind == InlineMath {
			sb.WriteString(LatexToUnicode(span.Text))
			continue
		}
		sb.WriteString(span.Text)
	}
	return sb.String()
}
