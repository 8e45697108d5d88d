// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/util"
)

// maxLoggedReply bounds the rejected heal reply kept in the log, in runes.
const maxLoggedReply = 200

var (
	healCleanupPatterns = []*regexp.Regexp{
		regexp.MustCompile("(?im)^```mermaid\\s*"),
		regexp.MustCompile("(?im)^```\\w*\\s*"),
		regexp.MustCompile("(?im)```\\s*$"),
		regexp.MustCompile(`(?im)^Here.*?:\s*`),
		regexp.MustCompile(`(?im)^Fixed.*?:\s*`),
		regexp.MustCompile(`(?im)^Corrected.*?:\s*`),
	}

	diagramKeywords = []string{
		"flowchart", "graph", "sequencediagram", "statediagram", "classdiagram",
		"erdiagram", "gantt", "pie", "block-beta",
	}
)

// FixDiagram asks the heal model for corrected mermaid source.
func (c *Client) FixDiagram(ctx context.Context, source, errMsg string) (string, error) {
	raw, err := c.generateOnce(ctx, c.cfg.HealModel, BuildHealPrompt(source, errMsg), c.healConfig())
	if err != nil {
		return "", fmt.Errorf("heal diagram: %w", err)
	}
	fixed, err := CleanHealOutput(raw)
	if err != nil {
		c.logger.Warn("heal reply rejected", zap.String("reply", util.TruncateRunes(raw, maxLoggedReply)))
		return "", err
	}
	return fixed, nil
}

// CleanHealOutput strips fences and chatter from a heal reply, joins
// split arrows, and requires the result to open with a diagram keyword.
func CleanHealOutput(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrNoUsableSource
	}
	for _, p := range healCleanupPatterns {
		text = replaceFirst(p, text, "")
	}
	text = strings.TrimSpace(diagram.JoinSplitArrows(strings.TrimSpace(text)))

	lower := strings.ToLower(text)
	for _, kw := range diagramKeywords {
		if strings.HasPrefix(lower, kw) {
			return text, nil
		}
	}
	return "", ErrNoUsableSource
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
