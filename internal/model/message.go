// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model holds the conversation transcript and the model registry.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/gemchat/internal/util"
)

// Role says who wrote a transcript entry.
type Role string

// The transcript only ever holds these two roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) String() string { return string(r) }

// IsValid reports whether r is RoleUser or RoleAssistant.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	}
	return false
}

// DisplayName is the speaker label shown in the terminal and the page.
func (r Role) DisplayName() string {
	if r == RoleAssistant {
		return "Gemini"
	}
	if r == RoleUser {
		return "You"
	}
	return string(r)
}

// GeminiRole maps r onto generateContent's vocabulary, where the
// assistant side is called "model".
func (r Role) GeminiRole() string {
	if r == RoleAssistant {
		return "model"
	}
	return "user"
}

// Message is one transcript entry. Replies are stored exactly as
// received. User text arrives already trimmed and NFC-composed by
// util.NormalizeInput.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func newMessage(role Role, content string) *Message {
	return &Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage stamps a user entry.
func NewUserMessage(content string) *Message { return newMessage(RoleUser, content) }

// NewAssistantMessage stamps an assistant entry.
func NewAssistantMessage(content string) *Message { return newMessage(RoleAssistant, content) }

// Preview flattens the content to one line of at most maxWidth cells.
func (m *Message) Preview(maxWidth int) string {
	return util.TruncateWidth(util.SingleLine(m.Content), maxWidth)
}
