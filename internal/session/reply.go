// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"strings"
	"time"

	"github.com/jeranaias/gemchat/internal/gemini"
)

// Reply text prefixes shown to the user for failed turns.
const (
	TransportErrorPrefix     = "API Request Error: "
	UncategorizedErrorPrefix = "An unexpected error occurred: "

	// MissingCredentialNotice is shown instead of sending anything when no
	// API key is available.
	MissingCredentialNotice = "Set GEMINI_API_KEY in your secrets (or enter a key) to start chatting."
)

// =============================================================================
// FAILURE KIND
// =============================================================================

// Kind classifies the outcome of a turn.
type Kind int

const (
	// KindNone is a normal reply.
	KindNone Kind = iota

	// KindMissingCredential means no key was configured; nothing was sent.
	KindMissingCredential

	// KindTransport covers network errors, timeouts, and non-2xx statuses.
	KindTransport

	// KindUnexpectedShape is a 2xx response without candidates[0].content.parts[0].text.
	// The reply is a placeholder, but the call itself succeeded.
	KindUnexpectedShape

	// KindUncategorized is anything else, such as an undecodable body.
	KindUncategorized
)

// String returns the kind name used in logs and the JSON API.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindMissingCredential:
		return "missing_credential"
	case KindTransport:
		return "transport"
	case KindUnexpectedShape:
		return "unexpected_shape"
	case KindUncategorized:
		return "uncategorized"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind encode as its name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsError reports whether the turn failed outright. An unexpected shape is
// not an error: the placeholder is a legitimate reply.
func (k Kind) IsError() bool {
	return k == KindMissingCredential || k == KindTransport || k == KindUncategorized
}

// =============================================================================
// REPLY
// =============================================================================

// Reply is the renderable outcome of one turn.
type Reply struct {
	// Text is what the user sees: the model's answer, a placeholder, or an
	// error line.
	Text string `json:"reply"`

	Kind Kind `json:"kind"`

	// Recorded is true when Text was appended to the transcript.
	Recorded bool `json:"recorded"`

	// Err is the underlying error for failed turns.
	Err error `json:"-"`

	Duration time.Duration `json:"-"`
}

// classify turns a client error into a Reply.
func classify(err error) Reply {
	var (
		transportErr *gemini.TransportError
		apiErr       *gemini.APIError
	)
	switch {
	case errors.Is(err, gemini.ErrMissingCredential):
		return Reply{Text: MissingCredentialNotice, Kind: KindMissingCredential, Err: err}
	case errors.As(err, &transportErr), errors.As(err, &apiErr):
		return Reply{Text: TransportErrorPrefix + err.Error(), Kind: KindTransport, Err: err}
	default:
		return Reply{Text: UncategorizedErrorPrefix + err.Error(), Kind: KindUncategorized, Err: err}
	}
}

// KindOfText recovers the kind of a recorded assistant message from its
// text. Transcripts store only text, so front-ends use this for styling.
func KindOfText(text string) Kind {
	switch {
	case strings.HasPrefix(text, TransportErrorPrefix):
		return KindTransport
	case strings.HasPrefix(text, UncategorizedErrorPrefix):
		return KindUncategorized
	case strings.HasPrefix(text, gemini.UnexpectedFormatPrefix):
		return KindUnexpectedShape
	case text == MissingCredentialNotice:
		return KindMissingCredential
	default:
		return KindNone
	}
}
