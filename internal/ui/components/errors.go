// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/makermind-tui/internal/ui/styles"
	"github.com/jeranaias/makermind-tui/internal/util"
)

// =============================================================================
// ERROR CATEGORIES
// =============================================================================

// ErrorCategory groups errors for display.
type ErrorCategory string

const (
	CategoryAuth     ErrorCategory = "Auth"
	CategoryQuota    ErrorCategory = "Quota"
	CategoryNetwork  ErrorCategory = "Network"
	CategoryTimeout  ErrorCategory = "Timeout"
	CategoryModel    ErrorCategory = "Model"
	CategoryRenderer ErrorCategory = "Renderer"
	CategoryUnknown  ErrorCategory = "Error"
)

// ErrorPattern maps error text to a title and suggestions.
type ErrorPattern struct {
	// Keywords are matched case-insensitively; any match selects the pattern.
	Keywords    []string
	Category    ErrorCategory
	Title       string
	Suggestions []string
}

// errorPatterns is ordered most specific first.
var errorPatterns = []ErrorPattern{
	{
		Keywords: []string{"api key not valid", "api_key_invalid", "permission_denied", "401", "403", "unauthenticated"},
		Category: CategoryAuth,
		Title:    "API Key Rejected",
		Suggestions: []string{
			"Check MAKERMIND_API_KEY or GEMINI_API_KEY",
			"Run: makermind config set gemini.api_key <key>",
		},
	},
	{
		Keywords: []string{"resource_exhausted", "429", "quota", "rate limit"},
		Category: CategoryQuota,
		Title:    "Quota Exceeded",
		Suggestions: []string{
			"Wait a minute and send again",
			"Lower diagram.heal_rate_per_minute to spend fewer requests on healing",
		},
	},
	{
		Keywords: []string{"deadline exceeded", "timeout", "timed out"},
		Category: CategoryTimeout,
		Title:    "Request Timed Out",
		Suggestions: []string{
			"Send again; long reports can take a while",
			"Raise gemini.timeout in the config file",
		},
	},
	{
		Keywords: []string{"not_found", "model not found", "is not found for api version"},
		Category: CategoryModel,
		Title:    "Model Not Available",
		Suggestions: []string{
			"Check gemini.chat_model and gemini.heal_model",
		},
	},
	{
		Keywords: []string{"connection refused", "no such host", "dial tcp", "network is unreachable", "connection reset", "eof"},
		Category: CategoryNetwork,
		Title:    "Connection Error",
		Suggestions: []string{
			"Check your internet connection",
			"Check proxy settings (HTTPS_PROXY)",
		},
	},
	{
		Keywords: []string{"chrome", "chromium", "exec: ", "browser"},
		Category: CategoryRenderer,
		Title:    "Diagram Renderer Unavailable",
		Suggestions: []string{
			"Install Chrome or Chromium, or set diagram.renderer = \"lint\"",
		},
	},
}

// MatchError returns the first pattern whose keywords appear in msg.
func MatchError(msg string) (ErrorPattern, bool) {
	lower := strings.ToLower(msg)
	if lower == "" {
		return ErrorPattern{}, false
	}
	for _, p := range errorPatterns {
		for _, k := range p.Keywords {
			if strings.Contains(lower, k) {
				return p, true
			}
		}
	}
	return ErrorPattern{}, false
}

// RenderError draws an error box with suggestions for err.
func RenderError(title string, err error, width int, theme *styles.Theme) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	pattern, ok := MatchError(msg)
	if ok {
		title = pattern.Title
	}
	if title == "" {
		title = string(CategoryUnknown)
	}
	if width <= 0 {
		width = 80
	}

	var sb strings.Builder
	sb.WriteString(theme.DiagramError.Bold(true).Render(styles.StatusIndicators.Error + " " + title))
	for _, line := range util.Wrap(msg, width-6) {
		sb.WriteString("\n" + theme.StatusDesc.Render(line))
	}
	for _, s := range pattern.Suggestions {
		sb.WriteString("\n" + theme.DiagramHint.Render("- "+s))
	}
	return theme.ErrorBox.Width(width - 2).Render(sb.String())
}
