// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSections(t *testing.T) {
	sections := ParseSections(fullReport)
	require.Len(t, sections, 5)

	assert.Equal(t, 1, sections[0].Number)
	assert.Equal(t, "Project Understanding", sections[0].Title)
	assert.True(t, strings.HasPrefix(sections[0].Content, "The goal is a small quadcopter"))
	assert.NotContains(t, sections[0].Content, "Engineering Decomposition")

	assert.Equal(t, 5, sections[4].Number)
	assert.Contains(t, sections[4].Content, "Bench test each motor")
}

func TestParseSections_ListItemsStayInSection(t *testing.T) {
	text := "## 4. Build Blueprint / BOM\nFrame kit.\n\n## 5. Testing & Failure Analysis\n" +
		"1. Static load testing of the frame\n2. Failure analysis of the arm joints\n3. Check calculations against logs\n"
	sections := ParseSections(text)
	require.Len(t, sections, 2)
	assert.Equal(t, 5, sections[1].Number)
	assert.Contains(t, sections[1].Content, "Static load testing of the frame")
	assert.Contains(t, sections[1].Content, "Check calculations against logs")
}

func TestParseSections_NoHeadings(t *testing.T) {
	assert.Empty(t, ParseSections("nothing numbered here"))
}

func TestStripDataBlocks(t *testing.T) {
	text := "Report body.\n\n```json\n{\"data\": []}\n```\n"
	assert.Equal(t, "Report body.", StripDataBlocks(text))
	assert.Equal(t, "no blocks", StripDataBlocks("no blocks"))
}
