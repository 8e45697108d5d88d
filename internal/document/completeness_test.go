// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullReport is a complete five-section report well over the length floor.
const fullReport = `## 1. Project Understanding
The goal is a small quadcopter frame that carries a 500 g payload for twenty minutes.

## 2. Engineering Decomposition
- Frame and arms
- Propulsion and ESCs
- Flight controller and sensors

## 3. Calculations & Technical Logic
Thrust per motor must exceed twice the hover requirement, which gives a margin for wind gusts.

| Component | Mass (g) |
|-----------|----------|
| Frame     | 150      |
| Battery   | 320      |

## 4. Build Blueprint / BOM
The bill of materials lists every part with supplier and price.

## 5. Testing & Failure Analysis
Bench test each motor before the first flight and log the current draw.

` + "```json\n{\"title\":\"Mass\",\"type\":\"pie\",\"data\":[{\"name\":\"Frame\",\"value\":150}]}\n```"

func TestAnalyze_ShortTextShortCircuits(t *testing.T) {
	tests := []string{
		"Short answer.",
		"",
		"   \n\t  ",
		"```mermaid\nflowchart TD\nA-->",
		strings.Repeat("a", DefaultMinLength-1),
	}
	for _, text := range tests {
		v := Analyze(text)
		assert.False(t, v.IsComplete, "text %q", text)
		assert.Equal(t, []DefectTag{InsufficientLength}, v.Defects, "text %q", text)
		assert.Equal(t, ReasonTooShort, v.Reason)
	}
}

func TestAnalyze_ShortAnswerScenario(t *testing.T) {
	v := Analyze("Short answer.")
	require.False(t, v.IsComplete)
	assert.True(t, v.Has(InsufficientLength))
	assert.Len(t, v.Defects, 1)
	assert.Equal(t, "Short answer.", v.TailSample)
}

func TestAnalyze_CompleteReport(t *testing.T) {
	require.GreaterOrEqual(t, len(fullReport), DefaultMinLength)
	v := Analyze(fullReport)
	assert.True(t, v.IsComplete, "defects: %v", v.DefectNames())
	assert.Empty(t, v.Defects)
	assert.Equal(t, ReasonComplete, v.Reason)
}

func TestAnalyze_CompleteCasualReply(t *testing.T) {
	// A long reply without any report structure must not be flagged for
	// missing sections.
	text := strings.Repeat("This is a plain explanation of how glue sets. ", 15)
	v := Analyze(text)
	assert.True(t, v.IsComplete, "defects: %v", v.DefectNames())
}

func TestAnalyze_Defects(t *testing.T) {
	pad := strings.Repeat("The motor mount is printed in PETG for heat resistance. ", 10)
	sections := "1. Project Understanding\n2. Engineering Decomposition\n3. Calculations\n"

	tests := []struct {
		name string
		text string
		want DefectTag
	}{
		{"unclosed fence", sections + pad + "\n```python\nprint('x')\n", UnclosedCodeFence},
		{"short table row", sections + pad + "\n| Part | Cost |\n|---|---|\n|x\n\nDone.", IncompleteTable},
		{"row cut at end", sections + pad + "\n| Part | Cost |\n|---|---|\n| Frame | 15", IncompleteTable},
		{"bare bullet", sections + pad + "\n- first\n-", IncompleteList},
		{"bare number", sections + pad + "\n1. first\n2.", IncompleteList},
		{"mid sentence", sections + pad + "\nThe next step is to attach the", MidSentenceCutoff},
		{"trailing comma", sections + pad + "\nWe need screws, nuts,", MidSentenceCutoff},
		{"continuation phrase", sections + pad + "\nThe kit includes the following", TrailingContinuationPhrase},
		{"bare colon", sections + pad + "\nRequired steps:", TrailingContinuationPhrase},
		{"missing sections", "1. Project Understanding\n" + pad, MissingExpectedSections},
		{"unclosed data block", sections + pad + "\n```json\n{\"title\": 1", UnclosedDataBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Analyze(tt.text)
			assert.False(t, v.IsComplete)
			assert.True(t, v.Has(tt.want), "want %s, got %v", tt.want, v.DefectNames())
			assert.False(t, v.Has(InsufficientLength))
		})
	}
}

func TestAnalyze_UnclosedDataBlockAlsoUnbalancesFences(t *testing.T) {
	text := fullReport[:strings.LastIndex(fullReport, "```")]
	v := Analyze(text)
	assert.True(t, v.Has(UnclosedDataBlock))
	assert.True(t, v.Has(UnclosedCodeFence))
	assert.Equal(t, ReasonStructural, v.Reason)
}

func TestAnalyze_TailSample(t *testing.T) {
	text := strings.Repeat("x", 300) + strings.Repeat("é", 250) + "."
	v := Analyze(text)
	assert.Equal(t, DefaultTailLength, len([]rune(v.TailSample)))
	assert.True(t, strings.HasSuffix(v.TailSample, "é."))
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := Analyze(fullReport + "\nNext we add")
	b := Analyze(fullReport + "\nNext we add")
	assert.Equal(t, a, b)
}

func TestCountSections(t *testing.T) {
	assert.Equal(t, 5, CountSections(fullReport))
	assert.Equal(t, 0, CountSections("hello world"))
	assert.Equal(t, 1, CountSections("the BOM is attached"))
}

func TestDefectTagString(t *testing.T) {
	assert.Equal(t, "unclosed_code_fence", UnclosedCodeFence.String())
	assert.Equal(t, "unknown", DefectTag(99).String())
	for tag := range defectNames {
		assert.NotEqual(t, "Unknown defect.", tag.Describe())
	}
}
