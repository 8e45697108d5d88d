// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"errors"
	"strings"
)

// =============================================================================
// RENDER CAPABILITY
// =============================================================================

// Renderer turns diagram source into drawable output (SVG markup for the
// mermaid engine). Render may return an error image instead of an error.
type Renderer interface {
	Render(ctx context.Context, source string) (string, error)
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(ctx context.Context, source string) (string, error)

// Render calls f.
func (f RenderFunc) Render(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}

// ErrEmptyOutput is reported when the engine returns nothing to draw.
var ErrEmptyOutput = errors.New("render engine returned no output")

// Result is the outcome of rendering and validating one candidate source.
type Result struct {
	OK     bool
	Output string
	Error  string
}

// Check renders source and classifies the outcome. An error from the
// engine is a failure without inspecting output; otherwise the output is
// handed to IsFailure.
func Check(ctx context.Context, r Renderer, source string) Result {
	out, err := r.Render(ctx, source)
	if err != nil {
		return Result{Error: err.Error()}
	}
	if strings.TrimSpace(out) == "" {
		return Result{Error: ErrEmptyOutput.Error()}
	}
	if IsFailure(out) {
		return Result{Output: out, Error: ErrorMessage(out)}
	}
	return Result{OK: true, Output: out}
}
