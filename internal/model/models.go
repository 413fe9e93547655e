// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"sort"
)

// DefaultModelID is the model a session uses when nothing else is chosen.
const DefaultModelID = "gemini-2.5-flash"

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains display information about a model.
type ModelInfo struct {
	// ID is the model identifier used in the request path
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Tier categorizes the model's capability level
	Tier string `json:"tier"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// String returns "Name (id)".
func (m ModelInfo) String() string {
	return fmt.Sprintf("%s (%s)", m.Name, m.ID)
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the static registry of models gemchat knows how to address.
var Models = map[string]ModelInfo{
	"gemini-2.5-flash": {
		ID:          "gemini-2.5-flash",
		Name:        "Gemini 2.5 Flash",
		Tier:        "Fast",
		Description: "Low latency, good default for chat",
	},
	"gemini-2.5-pro": {
		ID:          "gemini-2.5-pro",
		Name:        "Gemini 2.5 Pro",
		Tier:        "Powerful",
		Description: "Stronger reasoning, slower replies",
	},
}

// GetModelInfo looks up a model by ID.
func GetModelInfo(id string) (ModelInfo, bool) {
	info, ok := Models[id]
	return info, ok
}

// IsKnownModel reports whether id is in the registry.
func IsKnownModel(id string) bool {
	_, ok := Models[id]
	return ok
}

// ModelIDs returns every registered model ID, sorted.
func ModelIDs() []string {
	ids := make([]string, 0, len(Models))
	for id := range Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DisplayName returns the registry name for id, or id itself when unknown.
func DisplayName(id string) string {
	if info, ok := Models[id]; ok {
		return info.Name
	}
	return id
}

// NextModel returns the entry after current in choices, wrapping around.
// An unknown current yields the first choice.
func NextModel(choices []string, current string) string {
	if len(choices) == 0 {
		return current
	}
	for i, id := range choices {
		if id == current {
			return choices[(i+1)%len(choices)]
		}
	}
	return choices[0]
}
