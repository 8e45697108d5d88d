// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/document"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_Streaming(t *testing.T) {
	msg := NewAssistantMessage(4)
	assert.True(t, msg.Streaming())
	assert.Equal(t, uint64(4), msg.Generation)

	msg.AppendToken("Hello ")
	msg.AppendToken("world")
	assert.Equal(t, "Hello world", msg.Text())

	stats := NewStatistics()
	stats.RecordFirstToken()
	stats.Finalize()
	msg.FinalizeStream(stats)

	assert.False(t, msg.Streaming())
	assert.Equal(t, "Hello world", msg.Content)

	msg.AppendToken("ignored")
	assert.Equal(t, "Hello world", msg.Text(), "appends after finalize are dropped")
}

func TestMessage_MarkFailed(t *testing.T) {
	msg := NewAssistantMessage(1)
	msg.AppendToken("partial")
	msg.MarkFailed()

	assert.True(t, msg.Failed)
	assert.False(t, msg.Streaming())
	assert.Equal(t, "partial"+ErrorNotice, msg.Text())
	assert.Contains(t, msg.Badges(), "FAILED")
}

func TestMessage_Badges(t *testing.T) {
	msg := NewAssistantMessage(1)
	msg.FinalizeStream(nil)

	inst := diagram.NewInstance("graph TD\nA-->B", 1)
	msg.Annotate(document.Verdict{IsComplete: true}, nil, true, []*diagram.Instance{inst})

	badges := msg.Badges()
	assert.Contains(t, badges, "AUTO-COMPLETED")
	assert.NotContains(t, badges, "FAILED")
	assert.Same(t, inst, msg.Diagram(1))
	assert.Nil(t, msg.Diagram(2))
	assert.Nil(t, msg.Diagram(0))
}

func TestMessage_PartialBadge(t *testing.T) {
	msg := NewAssistantMessage(1)
	msg.FinalizeStream(nil)
	msg.Annotate(document.Analyze("Short answer."), nil, false, nil)
	assert.Contains(t, msg.Badges(), "PARTIAL: too short")
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage(strings.Repeat("é", 20))
	assert.Equal(t, strings.Repeat("é", 7)+"...", msg.Preview(10))
	assert.Equal(t, strings.Repeat("é", 20), msg.Preview(50))
}

func TestMessage_ConcurrentAppend(t *testing.T) {
	msg := NewAssistantMessage(1)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg.AppendToken("x")
			_ = msg.Text()
		}()
	}
	wg.Wait()
	assert.Len(t, msg.Text(), 50)
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_Messages(t *testing.T) {
	conv := NewConversation("gemini-2.5-flash")
	assert.True(t, conv.IsEmpty())
	assert.Equal(t, "New Blueprint", conv.GetTitle())

	user := conv.AddUserMessage("Design a quadcopter frame")
	assistant := conv.AddAssistantMessage(1)
	conv.AddSystemMessage("note")

	assert.Equal(t, 3, conv.MessageCount())
	assert.Equal(t, "Design a quadcopter frame", conv.GetTitle())
	assert.Same(t, assistant, conv.LastAssistantMessage())
	assert.Same(t, user, conv.LastUserMessage())
	assert.Same(t, user, conv.MessageByID(user.ID))
	assert.Nil(t, conv.MessageByID("missing"))
}

func TestConversation_Prune(t *testing.T) {
	conv := NewConversation("m")
	for i := 0; i < MaxMessages+5; i++ {
		conv.AddUserMessage("m")
	}
	assert.Equal(t, MaxMessages, conv.MessageCount())
}

func TestConversation_Clone(t *testing.T) {
	conv := NewConversation("m")
	msg := conv.AddAssistantMessage(1)
	msg.AppendToken("draft")

	clone := conv.Clone()
	msg.AppendToken(" more")

	require.Equal(t, 1, clone.MessageCount())
	assert.Equal(t, "draft", clone.Messages()[0].Text())
	assert.Equal(t, "draft more", msg.Text())
}

// =============================================================================
// MODEL REGISTRY TESTS
// =============================================================================

func TestGetModelInfo(t *testing.T) {
	info, ok := GetModelInfo("gemini-2.5-pro")
	require.True(t, ok)
	assert.Equal(t, "heal", info.Role)
	assert.Equal(t, "1M", info.ContextString())

	_, ok = GetModelInfo("gemini 2.5 flash")
	assert.True(t, ok, "names match case-insensitively")

	_, ok = GetModelInfo("gpt-4")
	assert.False(t, ok)
	assert.Contains(t, ModelIDs(), "gemini-2.5-flash")
}
