// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"regexp"
	"strings"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes the report as markdown under a metadata header.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// Export implements Exporter.
func (e *MarkdownExporter) Export(doc Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("# " + Title + "\n")
	sb.WriteString("> Generated: " + doc.generated() + "\n")
	sb.WriteString("> System: " + Generator + "\n\n")
	sb.WriteString("---\n\n")
	sb.WriteString(doc.Content)
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// PLAIN TEXT EXPORTER
// =============================================================================

const textRule = "════════════════════════════════════════════════════════════════"

var (
	boldMarker    = regexp.MustCompile(`\*\*`)
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	headingMarker = regexp.MustCompile(`#{1,3}\s`)
	fenceOpen     = regexp.MustCompile("```\\w*\\n?")
)

// TextExporter writes the report with markdown syntax removed.
type TextExporter struct{}

// NewTextExporter creates a plain-text exporter.
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// Export implements Exporter.
func (e *TextExporter) Export(doc Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(textRule + "\n")
	sb.WriteString(strings.Repeat(" ", 20) + strings.ToUpper(Title) + "\n")
	sb.WriteString(textRule + "\n")
	sb.WriteString("Generated: " + doc.generated() + "\n")
	sb.WriteString("System: " + Generator + "\n")
	sb.WriteString(textRule + "\n\n")
	sb.WriteString(PlainText(doc.Content))
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}

// PlainText strips bold markers, inline code ticks, heading markers, and
// code fences. Fences become blank lines.
func PlainText(content string) string {
	out := boldMarker.ReplaceAllString(content, "")
	out = inlineCode.ReplaceAllString(out, "$1")
	out = headingMarker.ReplaceAllString(out, "")
	out = fenceOpen.ReplaceAllString(out, "\n")
	return strings.ReplaceAll(out, "```", "\n")
}
