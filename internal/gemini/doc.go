// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini is a small client for the Gemini generateContent endpoint.
//
// It covers exactly what a blocking chat turn needs: the request and
// response wire types, a pure request builder with the fixed generation
// parameters, a single-attempt HTTP call with a hard timeout, and reply
// extraction that degrades to a readable placeholder when the response
// does not have the expected shape.
//
// # Usage
//
//	client := gemini.NewClient().WithTimeout(30 * time.Second)
//	req := gemini.NewRequest(contents)
//	result, err := client.GenerateContent(ctx, "gemini-2.5-flash", apiKey, req)
//	if err != nil {
//	    // *TransportError, *APIError, *DecodeError or ErrMissingCredential
//	}
//	text, ok := result.Reply()
//
// The client never retries. The API key travels as the "key" query
// parameter and is redacted from every log line and error string.
package gemini
