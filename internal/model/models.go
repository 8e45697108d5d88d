// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// ModelInfo describes a generation model the client knows about.
type ModelInfo struct {
	ID          string
	Name        string
	Description string
	// MaxOutputTokens is the provider's output cap.
	MaxOutputTokens int32
	ContextWindow   int
	// Role is "chat" for report generation or "heal" for diagram repair.
	Role string
}

// Models lists the supported models. The first chat model is the default.
var Models = []ModelInfo{
	{
		ID:              "gemini-2.5-flash",
		Name:            "Gemini 2.5 Flash",
		Description:     "Fast report generation and continuation",
		MaxOutputTokens: 65536,
		ContextWindow:   1048576,
		Role:            "chat",
	},
	{
		ID:              "gemini-2.5-pro",
		Name:            "Gemini 2.5 Pro",
		Description:     "Precise syntax repair for diagrams",
		MaxOutputTokens: 65536,
		ContextWindow:   1048576,
		Role:            "heal",
	},
	{
		ID:              "gemini-2.5-flash-lite",
		Name:            "Gemini 2.5 Flash-Lite",
		Description:     "Low-latency drafts",
		MaxOutputTokens: 65536,
		ContextWindow:   1048576,
		Role:            "chat",
	},
}

// GetModelInfo looks up a model by ID or case-insensitive name.
func GetModelInfo(nameOrID string) (ModelInfo, bool) {
	for _, m := range Models {
		if m.ID == nameOrID || strings.EqualFold(m.Name, nameOrID) {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ContextString formats the context window, e.g. "1M".
func (m ModelInfo) ContextString() string {
	switch {
	case m.ContextWindow >= 1000000:
		return fmt.Sprintf("%dM", m.ContextWindow/1000000)
	case m.ContextWindow >= 1000:
		return fmt.Sprintf("%dK", m.ContextWindow/1000)
	default:
		return fmt.Sprintf("%d", m.ContextWindow)
	}
}

// ModelIDs returns every known model ID.
func ModelIDs() []string {
	ids := make([]string, len(Models))
	for i, m := range Models {
		ids[i] = m.ID
	}
	return ids
}
