// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/makermind-tui/internal/document"
)

const truncatedReport = `## 1. Project Understanding
The goal is a small quadcopter frame that carries a 500 g payload.

## 2. Engineering Decomposition
- Frame and arms
- Propulsion and ESCs

## 3. Calculations & Technical Logic
Thrust per motor must exceed twice the hover requirement.

## 4. Build Blueprint / BOM
The bill of materials lists every`

const continuation = `part with supplier and price.

## 5. Testing & Failure Analysis
Bench test each motor before the first flight.`

func testAnalyzer() document.Analyzer {
	return document.Analyzer{MinLength: 50, TailLength: 200}
}

// scriptedStreamer emits one script of chunks per call.
type scriptedStreamer struct {
	scripts [][]string
	err     error
	prompts []string
}

func (s *scriptedStreamer) Stream(ctx context.Context, prompt string, onChunk func(string)) error {
	s.prompts = append(s.prompts, prompt)
	n := len(s.prompts) - 1
	if n < len(s.scripts) {
		for _, chunk := range s.scripts[n] {
			onChunk(chunk)
		}
	}
	return s.err
}

func collect() (*[]string, func(string)) {
	var got []string
	return &got, func(s string) { got = append(got, s) }
}

func TestCoordinator_CompleteTextNeedsNothing(t *testing.T) {
	streamer := &scriptedStreamer{}
	c := NewCoordinator(streamer, testAnalyzer(), 0, nil)
	full := truncatedReport + continuation

	res, err := c.Complete(context.Background(), "quadcopter", NewResponseBuffer(full), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Attempts)
	assert.False(t, res.AutoCompleted)
	assert.True(t, res.Verdict.IsComplete)
	assert.Empty(t, streamer.prompts)
}

func TestCoordinator_ContinuesTruncatedText(t *testing.T) {
	streamer := &scriptedStreamer{scripts: [][]string{{"part with supplier ", strings.TrimPrefix(continuation, "part with supplier ")}}}
	c := NewCoordinator(streamer, testAnalyzer(), DefaultMaxAttempts, nil)
	buf := NewResponseBuffer(truncatedReport)
	got, onChunk := collect()

	res, err := c.Complete(context.Background(), "Design a quadcopter", buf, onChunk)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Attempts)
	assert.True(t, res.AutoCompleted)
	assert.True(t, res.Verdict.IsComplete, "defects: %v", res.Verdict.DefectNames())
	assert.Equal(t, truncatedReport+Separator+continuation, buf.String())
	assert.Equal(t, len(Separator+continuation), res.Added)
	require.Len(t, *got, 3)
	assert.Equal(t, Separator, (*got)[0], "separator precedes the first continuation chunk")
	assert.Equal(t, buf.String(), truncatedReport+strings.Join(*got, ""), "forwarded chunks mirror the buffer")

	require.Len(t, streamer.prompts, 1)
	assert.Contains(t, streamer.prompts[0], "Design a quadcopter")
	assert.Contains(t, streamer.prompts[0], "lists every")
	assert.Contains(t, streamer.prompts[0], "mid sentence cutoff")
}

func TestCoordinator_StopsOnEmptyContinuation(t *testing.T) {
	streamer := &scriptedStreamer{scripts: [][]string{{"", ""}}}
	c := NewCoordinator(streamer, testAnalyzer(), DefaultMaxAttempts, nil)
	buf := NewResponseBuffer(truncatedReport)
	got, onChunk := collect()

	res, err := c.Complete(context.Background(), "q", buf, onChunk)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.AutoCompleted)
	assert.Equal(t, truncatedReport, buf.String(), "an empty continuation adds no separator")
	assert.Empty(t, *got)
}

func TestCoordinator_BoundedAttempts(t *testing.T) {
	streamer := &scriptedStreamer{scripts: [][]string{{"still going and"}, {"more and"}, {"never called."}}}
	c := NewCoordinator(streamer, testAnalyzer(), 2, nil)
	buf := NewResponseBuffer(truncatedReport)

	res, err := c.Complete(context.Background(), "q", buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Len(t, streamer.prompts, 2)
	assert.False(t, res.Verdict.IsComplete)
	assert.Equal(t, truncatedReport+Separator+"still going and"+Separator+"more and", buf.String())
}

func TestCoordinator_FailedContinuationIsBestEffort(t *testing.T) {
	streamer := &scriptedStreamer{scripts: [][]string{{"part with"}}, err: errors.New("503 unavailable")}
	c := NewCoordinator(streamer, testAnalyzer(), 2, nil)
	buf := NewResponseBuffer(truncatedReport)

	res, err := c.Complete(context.Background(), "q", buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.True(t, res.AutoCompleted)
	assert.Equal(t, truncatedReport+Separator+"part with", buf.String())
}

func TestCoordinator_CanceledTurnDropsChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	streamer := StreamFunc(func(ctx context.Context, prompt string, onChunk func(string)) error {
		cancel()
		onChunk("late chunk")
		return nil
	})
	c := NewCoordinator(streamer, testAnalyzer(), 2, nil)
	buf := NewResponseBuffer(truncatedReport)
	got, onChunk := collect()

	_, err := c.Complete(ctx, "q", buf, onChunk)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, truncatedReport, buf.String())
	assert.Empty(t, *got)
}

func TestCoordinator_EmptyBufferIsLeftAlone(t *testing.T) {
	streamer := &scriptedStreamer{}
	c := NewCoordinator(streamer, testAnalyzer(), 2, nil)

	res, err := c.Complete(context.Background(), "q", NewResponseBuffer(""), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Attempts)
	assert.Empty(t, streamer.prompts)
}

func TestResponseBuffer_Freeze(t *testing.T) {
	buf := NewResponseBuffer("a")
	require.NoError(t, buf.Append("b"))
	buf.Freeze()
	assert.True(t, buf.Frozen())
	assert.ErrorIs(t, buf.Append("c"), ErrBufferFrozen)
	assert.Equal(t, "ab", buf.String())
	assert.Equal(t, 2, buf.Len())
}

func TestCoordinator_FrozenBufferForwardsNothing(t *testing.T) {
	streamer := &scriptedStreamer{scripts: [][]string{{"part with supplier."}}}
	c := NewCoordinator(streamer, testAnalyzer(), 1, nil)
	buf := NewResponseBuffer(truncatedReport)
	buf.Freeze()
	got, onChunk := collect()

	res, err := c.Complete(context.Background(), "q", buf, onChunk)
	require.NoError(t, err)
	assert.Empty(t, *got)
	assert.False(t, res.AutoCompleted)
}

func TestBuildContinuationPrompt(t *testing.T) {
	v := document.Verdict{
		Defects:    []document.DefectTag{document.UnclosedCodeFence, document.MissingExpectedSections},
		TailSample: "tail text here",
	}
	prompt := BuildContinuationPrompt("Build a robot arm", v)

	assert.Contains(t, prompt, "ORIGINAL USER REQUEST:\nBuild a robot arm")
	assert.Contains(t, prompt, "...tail text here")
	assert.Contains(t, prompt, "- unclosed code fence: ")
	assert.Contains(t, prompt, "- missing expected sections: ")
	assert.True(t, strings.HasSuffix(prompt, "CONTINUE THE RESPONSE:"))
}
