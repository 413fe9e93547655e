// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

// Fixed generation parameters sent with every request.
const (
	DefaultMaxOutputTokens = 1024
	DefaultTemperature     = 0.7
	DefaultTopP            = 0.8
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Part is one piece of a content entry. Only text parts are used.
// Text is a pointer so a response part without a "text" field can be told
// apart from an empty string.
type Part struct {
	Text *string `json:"text,omitempty"`
}

// Content is one turn of the conversation on the wire.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// NewTextContent returns a content entry with a single text part.
func NewTextContent(role, text string) Content {
	return Content{
		Role:  role,
		Parts: []Part{{Text: &text}},
	}
}

// GenerationConfig holds the sampling parameters.
type GenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
}

// DefaultGenerationConfig returns the fixed parameters every request carries.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxOutputTokens: DefaultMaxOutputTokens,
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
	}
}

// GenerateContentRequest is the body of a generateContent call.
type GenerateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// NewRequest wraps contents with the default generation config. It has no
// side effects and returns equal requests for equal input.
func NewRequest(contents []Content) *GenerateContentRequest {
	if contents == nil {
		contents = []Content{}
	}
	return &GenerateContentRequest{
		Contents:         contents,
		GenerationConfig: DefaultGenerationConfig(),
	}
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateContentResponse is the decoded body of a successful call.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Index        int      `json:"index"`
}

// PromptFeedback explains why a prompt produced no candidates.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// UsageMetadata reports token counts for the call.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// apiErrorResponse is the body Google APIs return on failure.
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
