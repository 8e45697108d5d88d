// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"regexp"
	"strings"
)

// Section is one numbered part of a report and the text that follows its
// heading up to the next section heading.
type Section struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ParseSections splits text at its section headings. Text before the first
// heading is not part of any section.
func ParseSections(text string) []Section {
	blocks := Segment(text)
	var sections []Section
	for i, b := range blocks {
		if b.Kind != KindSection {
			continue
		}
		end := len(text)
		for _, next := range blocks[i+1:] {
			if next.Kind == KindSection {
				end = next.Span.Start
				break
			}
		}
		sections = append(sections, Section{
			Number:  b.Number,
			Title:   b.Title,
			Content: strings.TrimSpace(text[b.Span.End:end]),
		})
	}
	return sections
}

var dataBlockPattern = regexp.MustCompile("(?s)```json\\s*.*?```")

// StripDataBlocks removes ```json telemetry blocks from text meant for
// display. The full text is still used for exports and metrics.
func StripDataBlocks(text string) string {
	return strings.TrimSpace(dataBlockPattern.ReplaceAllString(text, ""))
}
