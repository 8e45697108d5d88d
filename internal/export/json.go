// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/makermind-tui/internal/document"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// Meta is the metadata object of a JSON export.
type Meta struct {
	Generator string `json:"generator"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// Blueprint is the JSON export shape.
type Blueprint struct {
	Meta     Meta               `json:"meta"`
	Content  string             `json:"content"`
	Sections []document.Section `json:"sections"`
}

// JSONExporter writes the report with its parsed sections.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export implements Exporter.
func (e *JSONExporter) Export(doc Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	sections := document.ParseSections(doc.Content)
	if sections == nil {
		sections = []document.Section{}
	}
	return json.MarshalIndent(Blueprint{
		Meta: Meta{
			Generator: Generator,
			Timestamp: doc.Timestamp.UTC().Format(time.RFC3339),
			Type:      DocumentType,
		},
		Content:  doc.Content,
		Sections: sections,
	}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
