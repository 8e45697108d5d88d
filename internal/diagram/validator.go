// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"html"
	"regexp"
	"strings"
)

// =============================================================================
// RENDER OUTPUT VALIDATION
// =============================================================================

const (
	errorRoleMarker   = `aria-roledescription="error"`
	errorIconMarker   = `class="error-icon"`
	errorTextMarker   = `class="error-text"`
	syntaxErrorPhrase = "Syntax error in text"

	// DefaultErrorMessage is reported when the error image names no cause.
	DefaultErrorMessage = "Invalid Mermaid syntax"
)

var errorTextPattern = regexp.MustCompile(`<text class="error-text"[^>]*>([^<]+)<`)

// IsFailure reports whether render output is the engine's error image
// rather than a real drawing. Checks run in order of reliability: the
// error role annotation, then the icon and text classes together, then
// the literal syntax error phrase.
func IsFailure(output string) bool {
	if strings.Contains(output, errorRoleMarker) {
		return true
	}
	if strings.Contains(output, errorIconMarker) && strings.Contains(output, errorTextMarker) {
		return true
	}
	return strings.Contains(output, syntaxErrorPhrase)
}

// ErrorMessage extracts the engine's error text from an error image.
func ErrorMessage(output string) string {
	if m := errorTextPattern.FindStringSubmatch(output); m != nil {
		if msg := strings.TrimSpace(html.UnescapeString(m[1])); msg != "" {
			return msg
		}
	}
	return DefaultErrorMessage
}
