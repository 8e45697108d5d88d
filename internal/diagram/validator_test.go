// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFailure(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"error role", `<svg aria-roledescription="error"></svg>`, true},
		{"icon and text", `<svg><path class="error-icon"/><text class="error-text">x</text></svg>`, true},
		{"icon only", `<svg><path class="error-icon"/></svg>`, false},
		{"syntax phrase", `<svg><text>Syntax error in text</text></svg>`, true},
		{"flowchart", `<svg aria-roledescription="flowchart-v2"><g/></svg>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFailure(tt.output))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Parse error on line 2", ErrorMessage(`<text class="error-text" x="1">Parse error on line 2</text>`))
	assert.Equal(t, `bad "quote"`, ErrorMessage(`<text class="error-text">bad &#34;quote&#34;</text>`))
	assert.Equal(t, DefaultErrorMessage, ErrorMessage(`<svg aria-roledescription="error"></svg>`))
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	res := Check(ctx, LintRenderer{}, validSource)
	assert.True(t, res.OK)
	assert.Empty(t, res.Error)

	res = Check(ctx, LintRenderer{}, brokenSource)
	assert.False(t, res.OK)
	assert.Equal(t, "Parse error on line 3: arrow without target", res.Error)
	assert.True(t, IsFailure(res.Output))

	res = Check(ctx, RenderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("engine crashed")
	}), validSource)
	assert.False(t, res.OK)
	assert.Equal(t, "engine crashed", res.Error)

	res = Check(ctx, RenderFunc(func(context.Context, string) (string, error) { return "  ", nil }), validSource)
	assert.False(t, res.OK)
	assert.Equal(t, ErrEmptyOutput.Error(), res.Error)
}

func TestLintRenderer(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{"valid flowchart", "flowchart LR\nA[Start] --> B(End)", ""},
		{"unknown grammar", "diagram\nA --> B", "Syntax error in text"},
		{"unbalanced node", "graph TD\nA[Start --> B", "unbalanced brackets"},
		{"er cardinality", "erDiagram\nCUSTOMER ||--o{ ORDER : places", ""},
		{"empty", "  ", "Empty diagram"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Check(context.Background(), LintRenderer{}, tt.source)
			if tt.wantErr == "" {
				assert.True(t, res.OK, res.Error)
				return
			}
			require.False(t, res.OK)
			assert.Contains(t, res.Error, tt.wantErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"split arrow", "graph TD\nA -->\nB", "graph TD\nA --> B"},
		{"spacing", "graph TD\nA-->B", "graph TD\nA --> B"},
		{"chain", "graph TD\nA-->B-->C", "graph TD\nA --> B --> C"},
		{"labels", "graph TD\nA[Pump]->B[Valve]", "graph TD\nA[Pump] -> B[Valve]"},
		{"blank lines", "graph TD\n\n\nA --> B\n  \nB --> C", "graph TD\nA --> B\nB --> C"},
		{"crlf", "graph TD\r\nA-->B\r\n", "graph TD\nA --> B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "Normalize must be idempotent")
		})
	}
}
