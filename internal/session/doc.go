// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session is the conversation session manager.
//
// A Session owns one transcript and drives blocking chat turns against the
// Gemini API: append the user's text, build the request from the whole
// transcript, send it once, and append whatever comes back. Every failure is
// caught at the turn boundary and turned into a reply string, so a front-end
// can always render something and the session stays usable.
//
// # Key Types
//
//   - Session: transcript, credential, model, and turn state for one user
//   - Reply: outcome of one turn (text, failure kind, whether it was recorded)
//   - Kind: failure taxonomy (missing credential, transport, unexpected shape, uncategorized)
//   - Store: in-memory registry of sessions with idle eviction
//
// # Usage
//
//	sess := session.New(gemini.NewClient(), apiKey, session.DefaultConfig())
//	reply, err := sess.Submit(ctx, "Hello!")
//	if err != nil {
//	    // empty input, turn already in flight, or session closed
//	}
//	fmt.Println(reply.Text)
//
// # State
//
// Empty -> AwaitingInput -> TurnInFlight -> AwaitingInput ... -> Closed.
// Only one turn may be in flight; a second Submit returns ErrTurnInFlight.
package session
