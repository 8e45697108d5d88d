// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// =============================================================================
// MARKDOWN CONVERSION
// =============================================================================

// SECURITY: the goldmark default renderer drops raw HTML from the report,
// so model output cannot inject script into an exported page.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts report markdown to an HTML fragment.
func RenderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter writes a standalone dark-themed page.
type HTMLExporter struct{}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

// Export implements Exporter.
func (e *HTMLExporter) Export(doc Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	body, err := RenderHTML(doc.Content)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("  <meta charset=\"UTF-8\">\n")
	sb.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("  <meta name=\"generator\" content=\"%s\">\n", Generator))
	sb.WriteString(fmt.Sprintf("  <title>MakerMind Blueprint - %s</title>\n", doc.Timestamp.UTC().Format("2006-01-02")))
	sb.WriteString("  <style>\n" + darkCSS + "  </style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString("  <div class=\"header\">\n")
	sb.WriteString("    <h1>" + Title + "</h1>\n")
	sb.WriteString(fmt.Sprintf("    <div class=\"meta\">Generated: %s | System: %s</div>\n", doc.generated(), Generator))
	sb.WriteString("  </div>\n")
	sb.WriteString("  <div class=\"content\">\n" + body + "  </div>\n")
	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// PRINT EXPORTER
// =============================================================================

// PrintExporter writes a light page that opens the print dialog when loaded.
type PrintExporter struct{}

// NewPrintExporter creates a print exporter.
func NewPrintExporter() *PrintExporter {
	return &PrintExporter{}
}

// Export implements Exporter.
func (e *PrintExporter) Export(doc Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	body, err := RenderHTML(doc.Content)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString("  <meta charset=\"UTF-8\">\n")
	sb.WriteString("  <title>MakerMind Blueprint</title>\n")
	sb.WriteString("  <style>\n" + printCSS + "  </style>\n")
	sb.WriteString("</head>\n<body onload=\"window.print()\">\n")
	sb.WriteString("  <h1>" + Title + "</h1>\n")
	sb.WriteString(fmt.Sprintf("  <div class=\"meta\">Generated: %s</div>\n", doc.generated()))
	sb.WriteString("  <div>\n" + body + "  </div>\n")
	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for the print page.
func (e *PrintExporter) FileExtension() string {
	return ".print.html"
}

// MimeType returns the MIME type for the print page.
func (e *PrintExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// STYLES
// =============================================================================

const darkCSS = `    :root {
      --mm-black: #020405;
      --mm-graphite: #0A0C10;
      --mm-teal: #38B2AC;
      --mm-cyan: #4FD1C5;
    }
    * { box-sizing: border-box; margin: 0; padding: 0; }
    body {
      font-family: 'Inter', -apple-system, sans-serif;
      background: var(--mm-black);
      color: #DDE1E7;
      line-height: 1.6;
      padding: 40px;
      max-width: 900px;
      margin: 0 auto;
    }
    .header {
      border-bottom: 1px solid var(--mm-graphite);
      padding-bottom: 20px;
      margin-bottom: 40px;
    }
    .header h1 {
      font-family: 'Saira Condensed', sans-serif;
      font-size: 2rem;
      color: var(--mm-teal);
      text-transform: uppercase;
      letter-spacing: 0.1em;
    }
    .header .meta {
      font-family: 'JetBrains Mono', monospace;
      font-size: 0.75rem;
      color: #7E8A98;
      margin-top: 8px;
    }
    .content h1, .content h2, .content h3 {
      font-family: 'Saira Condensed', sans-serif;
      color: var(--mm-teal);
      text-transform: uppercase;
      letter-spacing: 0.05em;
      margin: 28px 0 12px;
    }
    .content p { margin: 8px 0; }
    code {
      font-family: 'JetBrains Mono', monospace;
      background: rgba(0,0,0,0.3);
      padding: 2px 6px;
      border-radius: 3px;
      color: var(--mm-cyan);
      font-size: 0.875rem;
    }
    pre {
      background: var(--mm-graphite);
      padding: 16px;
      border-radius: 4px;
      overflow-x: auto;
      margin: 12px 0;
    }
    pre code { background: none; padding: 0; }
    table { width: 100%; border-collapse: collapse; margin: 12px 0; }
    th, td { border: 1px solid #2A2F33; padding: 8px 12px; text-align: left; }
    th {
      background: var(--mm-graphite);
      color: var(--mm-teal);
      font-family: 'JetBrains Mono', monospace;
      font-size: 0.75rem;
      text-transform: uppercase;
    }
    ul { list-style: none; margin: 8px 0; }
    ul li::before {
      content: "◆";
      color: var(--mm-teal);
      margin-right: 8px;
      font-size: 0.625rem;
    }
    @media print {
      body { background: white; color: black; }
      code { background: #f0f0f0; color: #0066cc; }
    }
`

const printCSS = `    body { font-family: Arial, sans-serif; padding: 40px; max-width: 800px; margin: 0 auto; }
    h1 { color: #0EE7C7; border-bottom: 2px solid #0EE7C7; padding-bottom: 10px; }
    h2, h3 { color: #333; margin-top: 24px; }
    code { background: #f0f0f0; padding: 2px 6px; border-radius: 3px; font-family: monospace; }
    pre { background: #f5f5f5; padding: 16px; border-radius: 4px; overflow-x: auto; }
    table { width: 100%; border-collapse: collapse; margin: 16px 0; }
    th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
    th { background: #f0f0f0; }
    .meta { color: #666; font-size: 12px; margin-bottom: 24px; }
`
