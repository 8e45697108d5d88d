// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/document"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns the label shown above a message.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "OPERATOR"
	case RoleAssistant:
		return "MAKERMIND"
	case RoleSystem:
		return "SYSTEM"
	default:
		return string(r)
	}
}

// ErrorNotice is appended to a message whose initial stream failed.
const ErrorNotice = "\n\n[SYSTEM ERROR]: Computation sequence interrupted. Check connection."

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one message of a conversation. Assistant messages are filled
// while streaming and annotated once the turn settles. Methods are safe for
// concurrent use so the UI can read while a turn goroutine appends.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`

	// Generation is the session turn generation that produced the message.
	Generation uint64 `json:"-"`

	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder // PERFORMANCE: avoids quadratic appends while streaming

	// AutoCompleted is set when a continuation added text.
	AutoCompleted bool `json:"auto_completed,omitempty"`
	// Failed is set when the initial stream broke.
	Failed bool `json:"failed,omitempty"`

	Verdict  *document.Verdict       `json:"-"`
	Metrics  *document.SystemMetrics `json:"metrics,omitempty"`
	Diagrams []*diagram.Instance     `json:"-"`

	TTFT          time.Duration `json:"ttft_ns,omitempty"`
	TotalDuration time.Duration `json:"total_duration_ns,omitempty"`

	mu sync.RWMutex
}

// NewMessage creates a message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an empty streaming assistant message.
func NewAssistantMessage(generation uint64) *Message {
	msg := NewMessage(RoleAssistant, "")
	msg.IsStreaming = true
	msg.Generation = generation
	return msg
}

// NewSystemMessage creates a system notice.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendToken appends streamed text. It is a no-op once streaming ended.
func (m *Message) AppendToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IsStreaming {
		m.streamContent.WriteString(token)
	}
}

// FinalizeStream freezes the streamed text into Content.
func (m *Message) FinalizeStream(stats *Statistics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
	if stats != nil {
		m.TTFT = stats.TTFT
		m.TotalDuration = stats.TotalDuration
	}
}

// MarkFailed appends the error notice and ends streaming.
func (m *Message) MarkFailed() {
	m.mu.Lock()
	if m.IsStreaming {
		m.streamContent.WriteString(ErrorNotice)
	} else {
		m.Content += ErrorNotice
	}
	m.Failed = true
	m.mu.Unlock()
	m.FinalizeStream(nil)
}

// Annotate records the settled verdict, metrics, and diagram instances.
func (m *Message) Annotate(verdict document.Verdict, metrics *document.SystemMetrics, autoCompleted bool, diagrams []*diagram.Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Verdict = &verdict
	m.Metrics = metrics
	m.AutoCompleted = autoCompleted
	m.Diagrams = diagrams
}

// Text returns the content so far (streaming or final).
func (m *Message) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// Streaming reports whether the message is still receiving text.
func (m *Message) Streaming() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsStreaming
}

// Diagram returns the n-th diagram instance (1-based), or nil.
func (m *Message) Diagram(n int) *diagram.Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n < 1 || n > len(m.Diagrams) {
		return nil
	}
	return m.Diagrams[n-1]
}

// DiagramStates returns snapshots of all diagram instances.
func (m *Message) DiagramStates() []diagram.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	states := make([]diagram.State, len(m.Diagrams))
	for i, inst := range m.Diagrams {
		states[i] = inst.State()
	}
	return states
}

// Preview returns a rune-safe truncated preview of the content.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Text())
	if len(runes) <= maxLen {
		return string(runes)
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return m.Text() == ""
}

// EstimateTokens gives a rough count at ~4 characters per token.
func (m *Message) EstimateTokens() int {
	return (len(m.Text()) + 3) / 4
}

// Badges returns the status badges shown under an assistant message.
func (m *Message) Badges() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var badges []string
	if m.AutoCompleted {
		badges = append(badges, "AUTO-COMPLETED")
	}
	healed := 0
	for _, inst := range m.Diagrams {
		if inst.State().Status == diagram.StatusHealed {
			healed++
		}
	}
	if healed > 0 {
		badges = append(badges, fmt.Sprintf("AUTO-HEALED x%d", healed))
	}
	if m.Verdict != nil && !m.Verdict.IsComplete && !m.Failed {
		badges = append(badges, "PARTIAL: "+m.Verdict.Reason.String())
	}
	if m.Failed {
		badges = append(badges, "FAILED")
	}
	return badges
}

// FormatStats returns "2.5s | TTFT 234ms" for a settled assistant message.
func (m *Message) FormatStats() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Role != RoleAssistant || m.TotalDuration == 0 {
		return ""
	}
	return formatDuration(m.TotalDuration) + " | TTFT " + formatDuration(m.TTFT)
}

// snapshot copies the exported fields without the lock.
func (m *Message) snapshot() *Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := &Message{
		ID:            m.ID,
		Role:          m.Role,
		Timestamp:     m.Timestamp,
		Content:       m.Content,
		Generation:    m.Generation,
		IsStreaming:   m.IsStreaming,
		AutoCompleted: m.AutoCompleted,
		Failed:        m.Failed,
		Verdict:       m.Verdict,
		Metrics:       m.Metrics,
		Diagrams:      append([]*diagram.Instance(nil), m.Diagrams...),
		TTFT:          m.TTFT,
		TotalDuration: m.TotalDuration,
	}
	c.streamContent.WriteString(m.streamContent.String())
	return c
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds timing for one generation.
type Statistics struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	TTFT          time.Duration
	TotalDuration time.Duration
}

// NewStatistics creates a Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// RecordFirstToken records when the first chunk arrived.
func (s *Statistics) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize computes the total duration.
func (s *Statistics) Finalize() {
	s.EndTime = time.Now()
	s.TotalDuration = s.EndTime.Sub(s.StartTime)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
