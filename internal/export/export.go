// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/jeranaias/makermind-tui/internal/util"
)

// =============================================================================
// DOCUMENT
// =============================================================================

const (
	// Title heads every exported document.
	Title = "MakerMind Engineering Blueprint"

	// Generator identifies the producing system in export metadata.
	Generator = "MakerMind v2.5.0-F"

	// DocumentType is the JSON export type tag.
	DocumentType = "engineering-blueprint"

	// DefaultPrefix is the filename prefix when none is configured.
	DefaultPrefix = "makermind-blueprint"
)

// ErrEmptyDocument is returned when there is nothing to export.
var ErrEmptyDocument = errors.New("document has no content")

// Document is a finished report ready for export.
type Document struct {
	Content   string
	Timestamp time.Time
}

// NewDocument creates a document. A zero timestamp is replaced by now.
func NewDocument(content string, ts time.Time) Document {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Document{Content: content, Timestamp: ts.UTC()}
}

func (d Document) validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyDocument
	}
	if d.Timestamp.IsZero() {
		return fmt.Errorf("document has invalid timestamp")
	}
	return nil
}

// generated formats the timestamp for document headers.
func (d Document) generated() string {
	return d.Timestamp.UTC().Format(time.RFC1123)
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a document to one output format.
type Exporter interface {
	// Export renders the document.
	Export(doc Document) ([]byte, error)

	// FileExtension returns the file extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatPrint    Format = "print"
)

// Formats lists every supported format in menu order.
var Formats = []Format{FormatMarkdown, FormatText, FormatHTML, FormatJSON, FormatPrint}

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "print", "pdf":
		return FormatPrint, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want md, txt, html, json, or print)", s)
	}
}

// New returns the exporter for a format.
func New(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownExporter(), nil
	case FormatText:
		return NewTextExporter(), nil
	case FormatHTML:
		return NewHTMLExporter(), nil
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatPrint:
		return NewPrintExporter(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures file exports.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// Prefix starts every filename. Default: DefaultPrefix.
	Prefix string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
		Prefix:    DefaultPrefix,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Filename returns "<prefix>-YYYY-MM-DD-HH-MM-SS<ext>" for the timestamp in UTC.
func Filename(prefix string, ts time.Time, ext string) string {
	prefix = sanitizeFilename(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s-%s%s", prefix, ts.UTC().Format("2006-01-02-15-04-05"), ext)
}

// ExportToFile renders doc with exporter and writes it under opts.OutputDir.
// It returns the written path. Failing to open the file afterwards is not an
// error; the path is still returned with the open error wrapped.
func ExportToFile(doc Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, Filename(opts.Prefix, doc.Timestamp, exporter.FileExtension()))

	// RELIABILITY: atomic write so a crash never leaves a half-written export
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			return outputPath, &OpenError{Path: outputPath, Err: err}
		}
	}

	return outputPath, nil
}

// OpenError reports an export that was written but could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("exported to %s but could not open it: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// CopyToClipboard places the report text on the system clipboard.
func CopyToClipboard(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyDocument
	}
	if clipboard.Unsupported {
		return errors.New("clipboard is not supported on this system")
	}
	if err := writeClipboard(content); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// sanitizeFilename keeps letters, digits, dashes, and underscores, and
// collapses runs of anything else into a single dash.
func sanitizeFilename(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > 50 {
		out = strings.TrimRight(out[:50], "-")
	}
	return out
}

// openFile opens a file in the default application for the OS.
var openFile = func(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		// Empty quoted title so start treats the path as the target.
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
