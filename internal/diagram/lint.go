// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/jeranaias/makermind-tui/internal/document"
)

// =============================================================================
// OFFLINE LINT RENDERER
// =============================================================================

var danglingArrowPattern = regexp.MustCompile(`(?:-->|->|==+>|\.\.+>)\s*$`)

// LintRenderer is a render engine stand-in used when no browser is
// available. It catches the structural faults generators most often make
// and reports them the way the mermaid engine does, as an error image with
// an error role, so the rest of the pipeline treats both engines alike.
// Output for a passing diagram is a minimal SVG wrapping the source.
type LintRenderer struct{}

// Render implements Renderer.
func (LintRenderer) Render(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if msg := lint(source); msg != "" {
		return errorImage(msg), nil
	}
	grammar := document.DiagramGrammar(source)
	return fmt.Sprintf(`<svg aria-roledescription="%s" xmlns="http://www.w3.org/2000/svg"><desc>%s</desc></svg>`,
		grammar, html.EscapeString(source)), nil
}

func lint(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return "Empty diagram"
	}
	grammar := document.DiagramGrammar(source)
	if grammar == "" {
		first := strings.SplitN(source, "\n", 2)[0]
		return fmt.Sprintf("Syntax error in text: unknown diagram type %q", first)
	}
	for i, line := range strings.Split(source, "\n") {
		if danglingArrowPattern.MatchString(line) {
			return fmt.Sprintf("Parse error on line %d: arrow without target", i+1)
		}
		// Only flowchart node shapes must close on the line that opens them.
		if grammar == "flowchart" && !balanced(line) {
			return fmt.Sprintf("Parse error on line %d: unbalanced brackets", i+1)
		}
	}
	return ""
}

func balanced(line string) bool {
	var stack []rune
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '(' || r == '[' || r == '{':
			stack = append(stack, r)
		case r == ')' || r == ']' || r == '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0 && !inQuote
}

// errorImage mimics the mermaid engine's error drawing.
func errorImage(msg string) string {
	return fmt.Sprintf(`<svg aria-roledescription="error" xmlns="http://www.w3.org/2000/svg">`+
		`<g><path class="error-icon" d=""></path><text class="error-text" x="0" y="0">%s</text></g></svg>`,
		html.EscapeString(msg))
}
