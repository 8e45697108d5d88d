// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"

	"go.uber.org/zap"

	"github.com/jeranaias/makermind-tui/internal/document"
)

// =============================================================================
// CONTINUATION COORDINATOR
// =============================================================================

const (
	// DefaultMaxAttempts bounds continuation calls per turn.
	DefaultMaxAttempts = 2

	// Separator is emitted before the first chunk of each continuation.
	Separator = "\n\n"
)

// Streamer is a stateless streaming generation call. Chunks are delivered
// in order on the calling goroutine before Stream returns.
type Streamer interface {
	Stream(ctx context.Context, prompt string, onChunk func(string)) error
}

// Result summarizes a Complete call.
type Result struct {
	// Attempts is the number of continuation calls made.
	Attempts int
	// Added is how many bytes continuations appended, separators included.
	Added int
	// AutoCompleted is true when any continuation produced text.
	AutoCompleted bool
	// Verdict is the analysis of the final buffer.
	Verdict document.Verdict
}

// Coordinator extends truncated responses.
type Coordinator struct {
	analyzer    document.Analyzer
	streamer    Streamer
	maxAttempts int
	logger      *zap.Logger
}

// NewCoordinator creates a coordinator. maxAttempts <= 0 uses DefaultMaxAttempts.
func NewCoordinator(streamer Streamer, analyzer document.Analyzer, maxAttempts int, logger *zap.Logger) *Coordinator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		analyzer:    analyzer,
		streamer:    streamer,
		maxAttempts: maxAttempts,
		logger:      logger.Named("continuation"),
	}
}

// Complete analyzes buf and, while it is incomplete, requests continuations
// of request, appending every chunk to buf and forwarding it to onChunk.
// It is best effort: a failing continuation ends the loop without error.
// The only error returned is ctx.Err() when the turn was superseded, in
// which case chunks arriving after cancellation are dropped.
func (c *Coordinator) Complete(ctx context.Context, request string, buf *ResponseBuffer, onChunk func(string)) (Result, error) {
	var res Result
	if onChunk == nil {
		onChunk = func(string) {}
	}

	for res.Attempts < c.maxAttempts {
		verdict := c.analyzer.Analyze(buf.String())
		if verdict.IsComplete || buf.Len() == 0 {
			break
		}
		res.Attempts++

		log := c.logger.With(zap.Int("attempt", res.Attempts), zap.Strings("defects", verdict.DefectNames()))
		log.Info("response incomplete, requesting continuation")

		added := 0
		emit := func(chunk string) {
			if chunk == "" || ctx.Err() != nil {
				return
			}
			if added == 0 {
				if err := buf.Append(Separator); err != nil {
					return
				}
				onChunk(Separator)
				added += len(Separator)
			}
			if err := buf.Append(chunk); err != nil {
				return
			}
			onChunk(chunk)
			added += len(chunk)
		}

		err := c.streamer.Stream(ctx, BuildContinuationPrompt(request, verdict), emit)
		res.Added += added
		if added > 0 {
			res.AutoCompleted = true
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err != nil {
			log.Warn("continuation failed", zap.Error(err), zap.Int("added", added))
			break
		}
		if added == 0 {
			log.Info("continuation produced no text, stopping")
			break
		}
		log.Info("continuation appended", zap.Int("added", added))
	}

	res.Verdict = c.analyzer.Analyze(buf.String())
	return res, nil
}

// StreamFunc adapts a function to the Streamer interface.
type StreamFunc func(ctx context.Context, prompt string, onChunk func(string)) error

// Stream calls f.
func (f StreamFunc) Stream(ctx context.Context, prompt string, onChunk func(string)) error {
	return f(ctx, prompt, onChunk)
}
