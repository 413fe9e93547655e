// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Error variables for conditions detected before or after the HTTP call.
var (
	// ErrMissingCredential indicates no API key was supplied. No request is sent.
	ErrMissingCredential = errors.New("Gemini API key not configured")

	// ErrEmptyModel indicates the model identifier is blank.
	ErrEmptyModel = errors.New("model identifier is empty")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response exceeded maximum size")

	errNotObject = errors.New("response body is not a JSON object")
)

// TransportError wraps a failure to complete the HTTP exchange: DNS, connect,
// TLS, timeout, or a broken body read. URL is already redacted.
type TransportError struct {
	Method  string
	URL     string
	Timeout time.Duration
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.IsTimeout() {
		return fmt.Sprintf("%s %s: request timed out after %s", e.Method, e.URL, e.Timeout)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the exchange hit the deadline.
func (e *TransportError) IsTimeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Status     string // Google status name, e.g. INVALID_ARGUMENT
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	text := http.StatusText(e.StatusCode)
	switch {
	case e.Message != "" && e.Status != "":
		return fmt.Sprintf("%d %s [%s]: %s", e.StatusCode, text, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%d %s: %s", e.StatusCode, text, e.Message)
	default:
		return fmt.Sprintf("%d %s", e.StatusCode, text)
	}
}

// DecodeError means a 2xx body was not a JSON object. null, arrays and
// bare scalars count as not an object.
type DecodeError struct {
	Err error
	Raw []byte
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse response: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
