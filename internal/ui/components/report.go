// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// =============================================================================
// REPORT VIEW
// =============================================================================

// ReportOptions configures RenderReport.
type ReportOptions struct {
	Width int
	// Diagrams are the heal states of the settled mermaid diagrams, in order.
	Diagrams        []diagram.State
	MaxHealAttempts int
	WordWrap        bool
	// Highlight enables syntax coloring of code blocks.
	Highlight bool
}

// RenderReport segments a report and renders each block. It works on
// partial text while a response streams; an open fence renders as far as
// it has arrived. Data blocks are not shown; telemetry is drawn separately.
// A block whose renderer panics is shown as its raw text and the rest of
// the report still renders.
func RenderReport(text string, opts ReportOptions, theme *styles.Theme) string {
	r := &reportRenderer{opts: opts, width: opts.Width, theme: theme}
	if r.width <= 0 {
		r.width = 80
	}

	var parts []string
	for _, b := range document.Segment(text) {
		if s, ok := r.safeBlock(b); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// reportRenderer carries the per-report state shared across blocks.
type reportRenderer struct {
	opts    ReportOptions
	width   int
	theme   *styles.Theme
	mermaid int // settled mermaid diagrams seen so far
}

// renderBlock is swapped in tests.
var renderBlock = (*reportRenderer).block

func (r *reportRenderer) safeBlock(b document.Block) (out string, ok bool) {
	defer func() {
		if recover() != nil {
			out = strings.TrimRight(b.Raw, "\n")
			ok = strings.TrimSpace(out) != ""
		}
	}()
	return renderBlock(r, b)
}

// block renders one block. ok is false for blocks that are not shown.
func (r *reportRenderer) block(b document.Block) (string, bool) {
	width, theme := r.width, r.theme
	switch b.Kind {
	case document.KindSection:
		return RenderSection(b.Number, b.Title, width, theme), true

	case document.KindTable:
		return RenderTable(b.Header, b.Rows, width, theme), true

	case document.KindFormula:
		return RenderFormula(b.Source, b.Display, theme), true

	case document.KindDiagram:
		if b.DiagramKind == document.DiagramBoxDrawing {
			return theme.BoxArt.Render(strings.TrimRight(b.Source, "\n")), true
		}
		panel := DiagramPanel{
			Grammar:     b.Grammar,
			Source:      b.Source,
			MaxAttempts: r.opts.MaxHealAttempts,
			Width:       width,
		}
		if !b.Open {
			r.mermaid++
			panel.Index = r.mermaid
			if r.mermaid <= len(r.opts.Diagrams) {
				st := r.opts.Diagrams[r.mermaid-1]
				panel.State = &st
			}
		}
		return panel.Render(theme), true

	case document.KindCode:
		if isDataBlock(b) {
			return "", false
		}
		return CodeBlock{
			Language:  b.Language,
			Code:      b.Source,
			MaxWidth:  width,
			Highlight: r.opts.Highlight,
		}.Render(theme), true

	default:
		if b.IsBlank() {
			return "", false
		}
		s := RenderProse(b.Raw, width, r.opts.WordWrap, theme)
		return s, s != ""
	}
}

// isDataBlock matches the trailing telemetry block, including one still
// streaming.
func isDataBlock(b document.Block) bool {
	return strings.EqualFold(b.Language, "json")
}

// =============================================================================
// PROSE
// =============================================================================

// RenderProse renders classified prose lines. Leading and trailing blank
// lines are dropped and runs of blank lines collapse to one.
func RenderProse(prose string, width int, wrap bool, theme *styles.Theme) string {
	var out []string
	blank := true
	for _, line := range document.ClassifyLines(prose) {
		if line.Kind == document.LineBlank {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, renderLine(line, width, wrap, theme))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func renderLine(line document.Line, width int, wrap bool, theme *styles.Theme) string {
	var prefix, body string
	switch line.Kind {
	case document.LineHeading:
		return fit(theme.Heading.Render(RenderInline(line.Text, theme)), "", width, wrap)
	case document.LineBoldLabel:
		body = theme.BoldLabel.Render(line.Label+":") + " " + RenderInline(line.Text, theme)
	case document.LineBullet:
		prefix = strings.Repeat("  ", line.Level) + theme.Bullet.Render("◆") + " "
		body = RenderInline(line.Text, theme)
	case document.LineNumbered, document.LineLettered:
		prefix = theme.Bullet.Render(line.Marker+".") + " "
		body = RenderInline(line.Text, theme)
	case document.LineIndented:
		prefix = strings.Repeat("  ", line.Level)
		body = RenderInline(line.Text, theme)
	default:
		body = RenderInline(line.Text, theme)
	}
	return fit(body, prefix, width, wrap)
}

// fit wraps body to width and hangs continuation lines under the prefix.
func fit(body, prefix string, width int, wrap bool) string {
	if !wrap || width <= 0 {
		return prefix + body
	}
	indent := lipgloss.Width(prefix)
	avail := width - indent
	if avail < 10 {
		avail = 10
	}
	wrapped := lipgloss.NewStyle().Width(avail).Render(body)
	lines := strings.Split(wrapped, "\n")
	pad := strings.Repeat(" ", indent)
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
		if i == 0 {
			lines[i] = prefix + lines[i]
		} else {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// RenderInline styles the inline spans of one line.
func RenderInline(s string, theme *styles.Theme) string {
	var sb strings.Builder
	for _, span := range document.InlineSpans(s) {
		switch span.Kind {
		case document.InlineMath:
			sb.WriteString(RenderFormula(span.Text, false, theme))
		case document.InlineCode:
			sb.WriteString(theme.InlineCode.Render(span.Text))
		case document.InlineBold:
			sb.WriteString(theme.Bold.Render(span.Text))
		case document.InlineItalic:
			sb.WriteString(theme.Italic.Render(span.Text))
		default:
			sb.WriteString(span.Text)
		}
	}
	return sb.String()
}
