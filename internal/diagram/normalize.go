// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"regexp"
	"strings"
)

// =============================================================================
// SOURCE NORMALIZATION
// =============================================================================

const nodePattern = `(\w+(?:\[[^\]\n]+\])?)`
const arrowPattern = `(-->|->|==+>|\.\.+>)`

var (
	// splitArrowPattern matches an arrow whose destination moved to the next line.
	splitArrowPattern = regexp.MustCompile(nodePattern + `[ \t]*` + arrowPattern + `[ \t]*\n\s*(\w+)`)

	// arrowRunPattern matches an arrow with the blanks around it.
	arrowRunPattern = regexp.MustCompile(`[ \t]*` + arrowPattern + `[ \t]*`)

	blankLinePattern = regexp.MustCompile(`\n[ \t]*\n`)
)

// Normalize applies the deterministic repair passes run before every
// render: it joins arrows split across lines, puts single spaces around
// arrows, and collapses blank lines. Normalize is idempotent.
func Normalize(source string) string {
	s := strings.ReplaceAll(source, "\r\n", "\n")
	s = JoinSplitArrows(s)
	s = spaceArrows(s)
	s = replaceUntilStable(blankLinePattern, s, "\n")
	return strings.TrimSpace(s)
}

// JoinSplitArrows moves an arrow's destination back onto the arrow's line.
func JoinSplitArrows(source string) string {
	return replaceUntilStable(splitArrowPattern, source, "$1 $2 $3")
}

// replaceUntilStable reapplies a replacement until the text stops changing.
// A match consumes the node the next split would start from, so a run of
// split lines needs more than one pass.
func replaceUntilStable(re *regexp.Regexp, s, repl string) string {
	for {
		next := re.ReplaceAllString(s, repl)
		if next == s {
			return s
		}
		s = next
	}
}

// spaceArrows puts one space on each side of an arrow that joins two nodes.
// Neighbouring characters are checked rather than matched, so in a chain
// like A-->B-->C the middle node serves both arrows. Arrows followed by an
// edge label or a sequence arrowhead are left alone.
func spaceArrows(s string) string {
	var sb strings.Builder
	pos := 0
	for _, m := range arrowRunPattern.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[0], m[1]
		if start == 0 || end >= len(s) || !isNodeEnd(s[start-1]) || !isWordByte(s[end]) {
			continue
		}
		sb.WriteString(s[pos:start])
		sb.WriteByte(' ')
		sb.WriteString(s[m[2]:m[3]])
		sb.WriteByte(' ')
		pos = end
	}
	sb.WriteString(s[pos:])
	return sb.String()
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNodeEnd(b byte) bool {
	return isWordByte(b) || b == ']' || b == ')'
}
