// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sort"
	"strings"
)

// =============================================================================
// COMMAND MATCHING
// =============================================================================

// FuzzyMatch scores how well query matches target. Every query rune must
// appear in target in order. Consecutive runes and a match at the start
// score higher; longer targets score lower.
func FuzzyMatch(query, target string) (score int, matched bool) {
	q := []rune(strings.ToLower(query))
	t := []rune(strings.ToLower(target))
	if len(q) == 0 {
		return 0, true
	}
	if len(q) > len(t) {
		return 0, false
	}

	qi, last := 0, -2
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] != q[qi] {
			continue
		}
		score++
		if ti == last+1 {
			score += 5
		}
		if ti == 0 || t[ti-1] == '/' || t[ti-1] == ' ' {
			score += 10
		}
		last = ti
		qi++
	}
	if qi != len(q) {
		return 0, false
	}
	return score - len(t)/4, true
}

// CommandNames returns the bare command words of Commands ("/export", ...).
func CommandNames() []string {
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = strings.Fields(c[0])[0]
	}
	return names
}

// CompleteCommand returns the commands that start with prefix, in help order.
func CompleteCommand(prefix string) []string {
	var out []string
	for _, name := range CommandNames() {
		if strings.HasPrefix(name, strings.ToLower(prefix)) {
			out = append(out, name)
		}
	}
	return out
}

// SuggestCommand returns the closest known command for a mistyped one.
func SuggestCommand(word string) (string, bool) {
	type scored struct {
		name  string
		score int
	}
	var matches []scored
	for _, name := range CommandNames() {
		if s, ok := FuzzyMatch(word, name); ok {
			matches = append(matches, scored{name, s})
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	return matches[0].name, true
}
