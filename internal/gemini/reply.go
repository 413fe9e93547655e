// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bytes"
	"fmt"
)

// UnexpectedFormatPrefix starts every placeholder reply built by Reply.
const UnexpectedFormatPrefix = "Error: Unexpected API response format"

// Reply extracts candidates[0].content.parts[0].text.
//
// When the response deviates from that shape, ok is false and text is a
// placeholder naming what was missing followed by the raw response body.
// A field of the wrong JSON type counts as a deviation and is named in the
// placeholder. Callers show the placeholder like any other reply.
func (r *Result) Reply() (text string, ok bool) {
	reason, text, ok := extract(r.Response)
	if ok {
		return text, true
	}
	if r.Mismatch != "" {
		reason = r.Mismatch
	}
	return UnexpectedFormatReply(reason, r.Raw), false
}

// UnexpectedFormatReply formats the placeholder for a malformed response.
func UnexpectedFormatReply(reason string, raw []byte) string {
	return fmt.Sprintf("%s (%s). %s", UnexpectedFormatPrefix, reason, bytes.TrimSpace(raw))
}

// extract walks the first candidate down to its first text part.
func extract(resp *GenerateContentResponse) (reason, text string, ok bool) {
	if resp == nil {
		return "empty response", "", false
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "no candidates, prompt blocked: " + resp.PromptFeedback.BlockReason, "", false
		}
		return "no candidates", "", false
	}

	first := resp.Candidates[0]
	if first.Content == nil {
		if first.FinishReason != "" {
			return "candidate has no content, finish reason " + first.FinishReason, "", false
		}
		return "candidate has no content", "", false
	}
	if len(first.Content.Parts) == 0 {
		return "candidate content has no parts", "", false
	}
	if first.Content.Parts[0].Text == nil {
		return "first part has no text", "", false
	}
	return "", *first.Content.Parts[0].Text, true
}
