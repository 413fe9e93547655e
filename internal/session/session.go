// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/util"
)

// Errors returned when a turn cannot start. None of them touch the transcript.
var (
	// ErrEmptyInput indicates the submitted text was blank.
	ErrEmptyInput = errors.New("message is empty")

	// ErrTurnInFlight indicates another turn on this session is still running.
	ErrTurnInFlight = errors.New("a reply is still being generated")

	// ErrSessionClosed indicates the session was torn down.
	ErrSessionClosed = errors.New("session closed")

	// ErrModelFixed indicates the model cannot be changed for this session.
	ErrModelFixed = errors.New("model selection is disabled")

	// ErrUnknownModel indicates a model outside the configured choices.
	ErrUnknownModel = errors.New("unknown model")
)

// Generator is the remote call a session depends on. *gemini.Client
// implements it.
type Generator interface {
	GenerateContent(ctx context.Context, modelID, apiKey string, req *gemini.GenerateContentRequest) (*gemini.Result, error)
}

// =============================================================================
// CONFIG
// =============================================================================

// Config holds per-session settings resolved once at session start.
type Config struct {
	// ModelID is the model used until SetModel changes it.
	ModelID string

	// Selectable allows SetModel; Choices lists the accepted IDs.
	Selectable bool
	Choices    []string

	// RecordFailures appends error replies to the transcript. When false,
	// failed turns are shown but leave only the user message behind.
	RecordFailures bool
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		ModelID:        model.DefaultModelID,
		Selectable:     true,
		Choices:        model.ModelIDs(),
		RecordFailures: true,
	}
}

// =============================================================================
// STATE
// =============================================================================

// State is the turn state of a session.
type State int

const (
	StateEmpty State = iota
	StateAwaitingInput
	StateTurnInFlight
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateTurnInFlight:
		return "turn_in_flight"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session holds one user's transcript and drives their chat turns.
// All methods are safe for concurrent use; turns are serialized.
type Session struct {
	mu sync.Mutex

	id         string
	gen        Generator
	cfg        Config
	transcript *model.Transcript
	credential string
	modelID    string
	state      State

	createdAt    time.Time
	lastActivity time.Time
	turns        int
}

// New creates a session with an empty transcript. credential may be empty
// when the key will be supplied later through SetCredential.
func New(gen Generator, credential string, cfg Config) *Session {
	if cfg.ModelID == "" {
		cfg.ModelID = model.DefaultModelID
	}
	now := time.Now()
	return &Session{
		id:           generateSessionID(),
		gen:          gen,
		cfg:          cfg,
		transcript:   model.NewTranscript(),
		credential:   strings.TrimSpace(credential),
		modelID:      cfg.ModelID,
		state:        StateEmpty,
		createdAt:    now,
		lastActivity: now,
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// State returns the current turn state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ModelID returns the model the next turn will use.
func (s *Session) ModelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modelID
}

// Selectable reports whether SetModel is allowed.
func (s *Session) Selectable() bool {
	return s.cfg.Selectable
}

// Choices returns the model IDs SetModel accepts.
func (s *Session) Choices() []string {
	return slices.Clone(s.cfg.Choices)
}

// HasCredential reports whether an API key is set.
func (s *Session) HasCredential() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential != ""
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastActivity returns the time of the last completed turn or state change.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Turns returns the number of completed turns.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Snapshot()
}

// Len returns the number of transcript messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Len()
}

// LastReply returns the content of the latest assistant message, if any.
func (s *Session) LastReply() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.transcript.LastAssistant(); msg != nil {
		return msg.Content, true
	}
	return "", false
}

// SetCredential installs the API key, e.g. after an interactive prompt.
func (s *Session) SetCredential(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	s.credential = strings.TrimSpace(key)
	s.lastActivity = time.Now()
	return nil
}

// SetModel switches the model for subsequent turns. The transcript is kept.
func (s *Session) SetModel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if id == s.modelID {
		return nil
	}
	if !s.cfg.Selectable {
		return ErrModelFixed
	}
	if !slices.Contains(s.cfg.Choices, id) {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	s.modelID = id
	return nil
}

// Close tears the session down. Later turns return ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}

// =============================================================================
// TURN PRIMITIVES
// =============================================================================

// AppendUserTurn appends the user's text to the transcript after trimming
// surrounding whitespace and composing it to NFC. Whitespace-only text is
// ErrEmptyInput.
func (s *Session) AppendUserTurn(text string) (*model.Message, error) {
	text, ok := util.NormalizeInput(text)
	if !ok {
		return nil, ErrEmptyInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	msg := s.transcript.AppendUser(text)
	s.markActive()
	return msg, nil
}

// AppendAssistantTurn appends a reply to the transcript.
func (s *Session) AppendAssistantTurn(text string) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.transcript.AppendAssistant(text)
	s.markActive()
	return msg
}

// BuildRemoteRequest builds the request for the current transcript.
func (s *Session) BuildRemoteRequest() *gemini.GenerateContentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildRemoteRequest(s.transcript)
}

// BuildRemoteRequest maps every message of t, in order, onto the
// generateContent request shape and attaches the fixed generation config.
// It reads t and nothing else.
func BuildRemoteRequest(t *model.Transcript) *gemini.GenerateContentRequest {
	return gemini.NewRequest(t.ToGeminiContents())
}

// SendAndReceive performs the remote call for req with the session's
// current credential and model. It never returns an error: every failure is
// folded into the Reply. The transcript is not modified.
func (s *Session) SendAndReceive(ctx context.Context, req *gemini.GenerateContentRequest) Reply {
	s.mu.Lock()
	modelID, key := s.modelID, s.credential
	s.mu.Unlock()
	return s.sendAndReceive(ctx, req, modelID, key)
}

func (s *Session) sendAndReceive(ctx context.Context, req *gemini.GenerateContentRequest, modelID, key string) (reply Reply) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			reply = Reply{
				Text: fmt.Sprintf("%s%v", UncategorizedErrorPrefix, r),
				Kind: KindUncategorized,
				Err:  fmt.Errorf("panic: %v", r),
			}
		}
		reply.Duration = time.Since(start)
	}()

	if key == "" {
		return classify(gemini.ErrMissingCredential)
	}

	result, err := s.gen.GenerateContent(ctx, modelID, key, req)
	if err != nil {
		return classify(err)
	}

	text, ok := result.Reply()
	if !ok {
		return Reply{Text: text, Kind: KindUnexpectedShape}
	}
	return Reply{Text: text, Kind: KindNone}
}

// =============================================================================
// TURN DRIVER
// =============================================================================

// Submit runs one full turn: append the user text, build the request from
// the whole transcript, send it, and append the reply.
//
// The returned error is non-nil only when no turn took place (ErrEmptyInput,
// ErrTurnInFlight, ErrSessionClosed). Otherwise the Reply is always
// renderable. A missing credential yields a KindMissingCredential reply
// with nothing appended and nothing sent.
func (s *Session) Submit(ctx context.Context, text string) (Reply, error) {
	text, ok := util.NormalizeInput(text)
	if !ok {
		return Reply{}, ErrEmptyInput
	}

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return Reply{}, ErrSessionClosed
	case StateTurnInFlight:
		s.mu.Unlock()
		return Reply{}, ErrTurnInFlight
	}
	if s.credential == "" {
		s.mu.Unlock()
		log.Printf("TURN_BLOCKED | session=%s reason=missing_credential", s.id)
		return classify(gemini.ErrMissingCredential), nil
	}

	s.transcript.AppendUser(text)
	req := BuildRemoteRequest(s.transcript)
	modelID, key := s.modelID, s.credential
	s.state = StateTurnInFlight
	s.mu.Unlock()

	reply := s.sendAndReceive(ctx, req, modelID, key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !reply.Kind.IsError() || s.cfg.RecordFailures {
		s.transcript.AppendAssistant(reply.Text)
		reply.Recorded = true
	}
	if s.state == StateTurnInFlight {
		s.state = StateAwaitingInput
	}
	s.turns++
	s.lastActivity = time.Now()

	if reply.Kind != KindNone {
		log.Printf("TURN_FAILED | session=%s model=%s kind=%s recorded=%t err=%v",
			s.id, modelID, reply.Kind, reply.Recorded, reply.Err)
	}
	return reply, nil
}

// markActive moves an empty session to AwaitingInput and bumps activity.
// Caller holds s.mu.
func (s *Session) markActive() {
	if s.state == StateEmpty {
		s.state = StateAwaitingInput
	}
	s.lastActivity = time.Now()
}

// generateSessionID creates a unique session identifier.
func generateSessionID() string {
	return "sess_" + uuid.NewString()
}
