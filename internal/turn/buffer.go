// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"errors"
	"strings"
	"sync"
)

// ErrBufferFrozen is returned when appending to a buffer after rendering began.
var ErrBufferFrozen = errors.New("response buffer is frozen")

// ResponseBuffer is the append-only text of one turn.
type ResponseBuffer struct {
	mu     sync.RWMutex
	sb     strings.Builder
	frozen bool
}

// NewResponseBuffer creates a buffer seeded with text.
func NewResponseBuffer(text string) *ResponseBuffer {
	b := &ResponseBuffer{}
	b.sb.WriteString(text)
	return b
}

// Append adds text to the end of the buffer.
func (b *ResponseBuffer) Append(s string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrBufferFrozen
	}
	b.sb.WriteString(s)
	return nil
}

// String returns a snapshot of the buffer.
func (b *ResponseBuffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sb.String()
}

// Len returns the buffer length in bytes.
func (b *ResponseBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sb.Len()
}

// Freeze rejects further appends.
func (b *ResponseBuffer) Freeze() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frozen = true
}

// Frozen reports whether Freeze was called.
func (b *ResponseBuffer) Frozen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frozen
}
