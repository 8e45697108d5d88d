// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// Chat is a stateful report conversation. History grows only with turns
// whose stream completed.
type Chat struct {
	client  *Client
	mu      sync.Mutex
	history []*genai.Content
}

// SendStream sends a user message and streams the reply through onChunk.
// It returns the full reply text.
func (ch *Chat) SendStream(ctx context.Context, message string, onChunk func(string)) (string, error) {
	user := genai.NewContentFromText(message, genai.RoleUser)

	ch.mu.Lock()
	contents := make([]*genai.Content, len(ch.history)+1)
	copy(contents, ch.history)
	contents[len(contents)-1] = user
	ch.mu.Unlock()

	cfg := ch.client.cfg
	text, err := ch.client.streamContents(ctx, cfg.ChatModel, contents, ch.client.reportConfig(cfg.MaxOutputTokens), onChunk)
	if err != nil {
		return text, err
	}

	ch.mu.Lock()
	ch.history = append(ch.history, user, genai.NewContentFromText(text, genai.RoleModel))
	ch.mu.Unlock()
	return text, nil
}

// Len returns the number of history entries.
func (ch *Chat) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.history)
}
