// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/gemchat/internal/gemini"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered history of one chat session. Messages are only
// ever appended; the transcript is never pruned, reordered, or persisted.
//
// A Transcript is not safe for concurrent use. The owning session serializes
// access.
type Transcript struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages"`
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	now := time.Now()
	return &Transcript{
		ID:        "tr_" + uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg *Message) {
	t.Messages = append(t.Messages, msg)
	t.UpdatedAt = time.Now()
}

// AppendUser creates and appends a user message.
func (t *Transcript) AppendUser(content string) *Message {
	msg := NewUserMessage(content)
	t.Append(msg)
	return msg
}

// AppendAssistant creates and appends an assistant message.
func (t *Transcript) AppendAssistant(content string) *Message {
	msg := NewAssistantMessage(content)
	t.Append(msg)
	return msg
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.Messages)
}

// IsEmpty returns true if no message has been appended yet.
func (t *Transcript) IsEmpty() bool {
	return len(t.Messages) == 0
}

// Last returns the most recent message, or nil if empty.
func (t *Transcript) Last() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// LastAssistant returns the most recent assistant message, or nil.
func (t *Transcript) LastAssistant() *Message {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleAssistant {
			return t.Messages[i]
		}
	}
	return nil
}

// Snapshot returns a copy of the messages that callers may read while the
// transcript keeps growing.
func (t *Transcript) Snapshot() []Message {
	out := make([]Message, len(t.Messages))
	for i, m := range t.Messages {
		out[i] = *m
	}
	return out
}

// =============================================================================
// WIRE CONVERSION
// =============================================================================

// ToGeminiContents converts the whole transcript, in order, to the
// generateContent "contents" array. Each message becomes one content entry
// with a single text part. Nothing is dropped or windowed.
func (t *Transcript) ToGeminiContents() []gemini.Content {
	contents := make([]gemini.Content, 0, len(t.Messages))
	for _, msg := range t.Messages {
		contents = append(contents, gemini.NewTextContent(msg.Role.GeminiRole(), msg.Content))
	}
	return contents
}
