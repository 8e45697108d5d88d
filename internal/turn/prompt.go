// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"strings"

	"github.com/jeranaias/makermind-tui/internal/document"
)

// BuildContinuationPrompt asks the generator to pick up a truncated
// response exactly where it stopped.
func BuildContinuationPrompt(request string, verdict document.Verdict) string {
	var sb strings.Builder
	sb.WriteString("You are continuing an incomplete AI response. The previous response was cut off.\n\n")

	sb.WriteString("ORIGINAL USER REQUEST:\n")
	sb.WriteString(request)
	sb.WriteString("\n\n")

	sb.WriteString("PREVIOUS RESPONSE (truncated, showing last part):\n...")
	sb.WriteString(verdict.TailSample)
	sb.WriteString("\n\n")

	sb.WriteString("DETECTED ISSUES:\n")
	for _, d := range verdict.Defects {
		sb.WriteString("- ")
		sb.WriteString(strings.ReplaceAll(d.String(), "_", " "))
		sb.WriteString(": ")
		sb.WriteString(d.Describe())
		sb.WriteString("\n")
	}

	sb.WriteString(`
INSTRUCTIONS:
1. Continue EXACTLY from where the response was cut off.
2. Do NOT repeat any content that was already written.
3. Complete any unfinished sections, tables, code blocks, or sentences.
4. If sections are missing (like Testing & Failure Analysis), add them.
5. Make sure to close any open code blocks with ` + "```" + `.
6. If a JSON metrics block was expected but missing, include it.
7. Write as if you're seamlessly continuing the previous text.

CONTINUE THE RESPONSE:`)
	return sb.String()
}
