// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export turns a finished engineering report into downloadable
// documents.
//
// Every exporter is a pure function of a Document, the report text plus the
// time it was produced, so the same input always yields the same bytes and
// the same filename.
//
// # Formats
//
//   - md: the report under a MakerMind header
//   - txt: markdown syntax stripped, boxed header
//   - html: standalone dark-themed page, markdown converted with goldmark
//   - json: metadata, full text, and parsed sections
//   - print: light HTML page that opens the print dialog on load
//
// # Usage
//
//	doc := export.NewDocument(msg.Text(), msg.Timestamp)
//	path, err := export.ExportToFile(doc, export.NewMarkdownExporter(), opts)
//
// CopyToClipboard places the raw report text on the system clipboard.
package export
