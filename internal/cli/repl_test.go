// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/makermind-tui/internal/export"
	"github.com/jeranaias/makermind-tui/internal/session"
)

const diagramReply = "## 1. SYSTEM OVERVIEW\n\nA desk fan.\n\n```mermaid\ngraph TD\nA-->B\n```\n"

type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) SendStream(_ context.Context, _ string, onChunk func(string)) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, word := range strings.SplitAfter(f.reply, " ") {
		onChunk(word)
	}
	return f.reply, nil
}

func newTestREPL(t *testing.T, chat *fakeChat) (*repl, *bytes.Buffer) {
	t.Helper()
	sess := session.New(func() session.ChatHandle { return chat }, nil, nil, session.Options{Model: "test-model"})
	t.Cleanup(sess.Close)

	var out bytes.Buffer
	opts := export.DefaultOptions()
	opts.OutputDir = t.TempDir()
	return newREPL(sess, &out, opts), &out
}

func TestREPL_StreamsReply(t *testing.T) {
	r, out := newTestREPL(t, &fakeChat{reply: diagramReply})

	quit, err := r.handleLine(context.Background(), "a desk fan")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "A desk fan.")
	assert.Contains(t, out.String(), "1 diagram(s), /diagrams to check")

	out.Reset()
	_, err = r.handleLine(context.Background(), "/diagrams")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "1. not rendered yet")
}

func TestREPL_TransportFailure(t *testing.T) {
	r, _ := newTestREPL(t, &fakeChat{err: errors.New("connection reset")})

	_, err := r.handleLine(context.Background(), "a desk fan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestREPL_Quit(t *testing.T) {
	r, _ := newTestREPL(t, &fakeChat{})
	for _, input := range []string{"/quit", "/q", "/exit", "exit", "QUIT"} {
		quit, err := r.handleLine(context.Background(), input)
		require.NoError(t, err)
		assert.True(t, quit, input)
	}
}

func TestREPL_Help(t *testing.T) {
	r, out := newTestREPL(t, &fakeChat{})
	_, err := r.handleLine(context.Background(), "/help")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "/export")
	assert.Contains(t, out.String(), "/diagrams")
}

func TestREPL_UnknownCommand(t *testing.T) {
	r, _ := newTestREPL(t, &fakeChat{})
	_, err := r.handleLine(context.Background(), "/hlp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean /help?")
}

func TestREPL_NewChat(t *testing.T) {
	r, out := newTestREPL(t, &fakeChat{reply: diagramReply})
	_, err := r.handleLine(context.Background(), "a desk fan")
	require.NoError(t, err)

	_, err = r.handleLine(context.Background(), "/new")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "New chat started")
	assert.True(t, r.sess.Conversation().IsEmpty())
}

func TestREPL_ExportAndCopy(t *testing.T) {
	r, out := newTestREPL(t, &fakeChat{reply: diagramReply})

	_, err := r.handleLine(context.Background(), "/export")
	assert.EqualError(t, err, "nothing to export yet")
	_, err = r.handleLine(context.Background(), "/copy")
	assert.EqualError(t, err, "nothing to export yet")

	_, err = r.handleLine(context.Background(), "a desk fan")
	require.NoError(t, err)

	_, err = r.handleLine(context.Background(), "/export docx")
	require.Error(t, err)

	_, err = r.handleLine(context.Background(), "/export html")
	require.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join(r.exportOpts.OutputDir, "*.html"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Contains(t, out.String(), "Blueprint exported to")

	var copied string
	r.copy = func(s string) error {
		copied = s
		return nil
	}
	_, err = r.handleLine(context.Background(), "/copy")
	require.NoError(t, err)
	assert.Equal(t, diagramReply, copied)

	r.copy = func(string) error { return errors.New("no clipboard") }
	_, err = r.handleLine(context.Background(), "/copy")
	assert.ErrorContains(t, err, "no clipboard")
}

func TestREPL_Heal(t *testing.T) {
	r, _ := newTestREPL(t, &fakeChat{reply: diagramReply})

	for _, input := range []string{"/heal", "/heal zero", "/heal 0"} {
		_, err := r.handleLine(context.Background(), input)
		assert.EqualError(t, err, "usage: /heal N (diagram number)", input)
	}

	_, err := r.handleLine(context.Background(), "/heal 1")
	assert.EqualError(t, err, "diagram rendering is disabled")
}

func TestREPL_NoDiagrams(t *testing.T) {
	r, out := newTestREPL(t, &fakeChat{})
	_, err := r.handleLine(context.Background(), "/diagrams")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no diagrams")
}
