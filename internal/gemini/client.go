// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeranaias/gemchat/internal/util"
)

// Configuration constants for the Gemini API.
const (
	// DefaultBaseURL is the public Generative Language API host.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// APIVersion is the path segment for the stable API.
	APIVersion = "v1"

	// DefaultTimeout bounds one generateContent exchange end to end.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "gemchat/0.1.0"
)

// Client sends generateContent requests. A Client holds no per-session state
// and is safe for concurrent use; the API key is passed on every call.
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
	timeout    time.Duration
	verbose    bool
}

// NewClient creates a client pointed at the public API with the default
// timeout.
func NewClient() *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		apiVersion: APIVersion,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		timeout: DefaultTimeout,
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.timeout = timeout
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient sends requests through a copy of hc that carries the
// configured timeout. hc itself is left untouched.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	own := *hc
	own.Timeout = c.timeout
	c.httpClient = &own
	return c
}

// WithVerbose enables request/response logging.
func (c *Client) WithVerbose(verbose bool) *Client {
	c.verbose = verbose
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the configured request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// =============================================================================
// GENERATE CONTENT
// =============================================================================

// Result is a completed 2xx exchange.
type Result struct {
	StatusCode int
	Raw        []byte
	Response   *GenerateContentResponse
	Duration   time.Duration

	// Mismatch describes the first field whose JSON type did not fit
	// GenerateContentResponse. Response then holds whatever did decode.
	Mismatch string
}

// GenerateContent performs exactly one POST to
// {base}/v1/models/{model}:generateContent?key={apiKey}.
//
// A blank apiKey returns ErrMissingCredential without touching the network.
// Network failures and timeouts return *TransportError, non-2xx responses
// return *APIError, and a 2xx body that is not a JSON object returns
// *DecodeError. A 2xx body with an unexpected shape is NOT an error; see
// Result.Reply.
func (c *Client) GenerateContent(ctx context.Context, modelID, apiKey string, req *GenerateContentRequest) (*Result, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, ErrEmptyModel
	}

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	requestURL := c.endpoint(modelID, apiKey)
	safeURL := RedactURL(requestURL)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %s", RedactString(err.Error(), apiKey))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	c.logRequest(httpReq, apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return nil, &TransportError{
			Method:  http.MethodPost,
			URL:     safeURL,
			Timeout: c.timeout,
			Err:     stripURLError(err, apiKey),
		}
	}
	defer resp.Body.Close()

	c.logResponse(resp, duration)

	body, err := readResponse(resp)
	if err != nil {
		return nil, &TransportError{
			Method:  http.MethodPost,
			URL:     safeURL,
			Timeout: c.timeout,
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, handleErrorResponse(resp.StatusCode, body, apiKey)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &DecodeError{Err: err, Raw: body}
	}
	if fields == nil {
		return nil, &DecodeError{Err: errNotObject, Raw: body}
	}

	var decoded GenerateContentResponse
	var mismatch string
	if err := json.Unmarshal(body, &decoded); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, &DecodeError{Err: err, Raw: body}
		}
		mismatch = describeMismatch(typeErr)
	}
	if c.verbose && decoded.UsageMetadata != nil {
		u := decoded.UsageMetadata
		log.Printf("API Usage: model=%s prompt_tokens=%d reply_tokens=%d total_tokens=%d",
			modelID, u.PromptTokenCount, u.CandidatesTokenCount, u.TotalTokenCount)
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Raw:        body,
		Response:   &decoded,
		Duration:   duration,
		Mismatch:   mismatch,
	}, nil
}

// describeMismatch names the offending field, e.g.
// "candidates.content.parts.text has type number".
func describeMismatch(err *json.UnmarshalTypeError) string {
	field := err.Field
	if field == "" {
		field = "response"
	}
	return fmt.Sprintf("%s has type %s", field, err.Value)
}

// endpoint builds the request URL including the key query parameter.
func (c *Client) endpoint(modelID, apiKey string) string {
	q := url.Values{}
	q.Set("key", apiKey)
	return fmt.Sprintf("%s/%s/models/%s:generateContent?%s",
		c.baseURL, c.apiVersion, url.PathEscape(modelID), q.Encode())
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	// Read one byte past the limit so an exact-size body is still accepted.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("%w of %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts a non-2xx response to an *APIError.
func handleErrorResponse(statusCode int, body []byte, apiKey string) error {
	apiErr := &APIError{StatusCode: statusCode}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Status = parsed.Error.Status
		apiErr.Message = parsed.Error.Message
	} else if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		apiErr.Message = util.TruncateRunes(trimmed, 200)
	}
	apiErr.Message = RedactString(apiErr.Message, apiKey)
	return apiErr
}

// stripURLError drops the *url.Error wrapper, whose message embeds the full
// request URL and therefore the key.
func stripURLError(err error, apiKey string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if apiKey != "" && strings.Contains(err.Error(), apiKey) {
		return errors.New(RedactString(err.Error(), apiKey))
	}
	return err
}

// =============================================================================
// REDACTION AND LOGGING
// =============================================================================

// RedactURL replaces the key query parameter with REDACTED.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable url]"
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// RedactString removes every occurrence of secret from s.
func RedactString(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "REDACTED")
}

// KeyFingerprint returns a short SHA-256 fingerprint of an API key for logs.
// SECURITY: Never log key fragments, only the fingerprint.
func KeyFingerprint(apiKey string) string {
	if apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:4])
}

// logRequest logs an API request without the key or body.
func (c *Client) logRequest(req *http.Request, apiKey string) {
	if !c.verbose {
		return
	}
	log.Printf("API Request: %s %s key_fp=%s", req.Method, req.URL.Path, KeyFingerprint(apiKey))
}

// logResponse logs an API response status with duration.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	if !c.verbose {
		return
	}
	log.Printf("API Response: %s (%v)", resp.Status, duration.Round(time.Millisecond))
}
