// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
//
// This package defines the core domain types shared by the session manager
// and every front-end: the ordered chat transcript, its messages, and the
// static registry of Gemini models a session may talk to.
//
// # Key Types
//
//   - Transcript: Ordered, append-only list of messages owned by one session
//   - Message: Single message with role, content, and timestamp
//   - ModelInfo: Display information about a Gemini model
//   - Role: Message role enumeration (user, assistant)
//
// # Usage
//
// Build a transcript and convert it to the wire shape:
//
//	t := model.NewTranscript()
//	t.AppendUser("Hello!")
//	t.AppendAssistant("Hi there.")
//	contents := t.ToGeminiContents()
package model
