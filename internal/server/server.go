// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/session"
)

// Version is reported by /health.
var Version = "0.1.0"

// CookieName is the browser session cookie.
const CookieName = "gemchat_session"

// KeySource supplies the API key for new browser sessions.
// *credential.SecretStore implements it.
type KeySource interface {
	Lookup() (string, error)
}

// SessionFactory creates a session holding key, which may be empty.
type SessionFactory func(key string) *session.Session

// ============================================================================
// SERVER
// ============================================================================

// Server is the web front-end.
type Server struct {
	addr       string
	store      *session.Store
	newSession SessionFactory

	keys         KeySource
	promptForKey bool
	title        string
	md           goldmark.Markdown

	// notices holds one-shot messages for the next page render, by session.
	mu      sync.Mutex
	notices map[string]string

	router *http.ServeMux
	server *http.Server
}

// New creates a server that keeps browser sessions in store and creates
// them with newSession.
func New(addr string, store *session.Store, newSession SessionFactory) *Server {
	s := &Server{
		addr:       addr,
		store:      store,
		newSession: newSession,
		title:      DefaultTitle,
		md:         newMarkdown(),
		notices:    make(map[string]string),
		router:     http.NewServeMux(),
	}
	store.OnEvict(s.dropNotice)
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// WithKeySource sets where new sessions get their key.
func (s *Server) WithKeySource(keys KeySource) *Server {
	s.keys = keys
	return s
}

// WithPromptForKey makes the page ask each browser for its own key.
func (s *Server) WithPromptForKey(prompt bool) *Server {
	s.promptForKey = prompt
	return s
}

// WithTitle sets the page heading.
func (s *Server) WithTitle(title string) *Server {
	if title != "" {
		s.title = title
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// setupRoutes registers all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("POST /chat", s.handleChatForm)
	s.router.HandleFunc("POST /credential", s.handleCredential)
	s.router.HandleFunc("POST /model", s.handleModel)
	s.router.HandleFunc("POST /reset", s.handleReset)

	s.router.HandleFunc("POST /api/chat", s.handleAPIChat)
	s.router.HandleFunc("GET /api/transcript", s.handleTranscript)
	s.router.HandleFunc("GET /api/models", s.handleModels)

	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		BodyLimitMiddleware(MaxRequestBodySize),
	)(s.router)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start listens on the configured address. It blocks until the server stops
// and returns nil after a clean Shutdown. Shutdown may be called before
// Start, in which case Start returns immediately.
func (s *Server) Start() error {
	log.Printf("SERVER_START | addr=%s version=%s prompt_for_key=%t", s.addr, Version, s.promptForKey)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight turns.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Printf("SERVER_SHUTDOWN | sessions=%d", s.store.Len())
	return s.server.Shutdown(ctx)
}

// ============================================================================
// BROWSER SESSIONS
// ============================================================================

// sessionFor returns the caller's session, creating one (and setting the
// cookie) when the cookie is missing or points at an evicted session.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(CookieName); err == nil {
		if sess, ok := s.store.Get(c.Value); ok {
			return sess
		}
	}

	key := s.lookupKey()
	sess := s.newSession(key)
	s.store.Add(sess)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// existingSession returns the caller's session without creating one.
func (s *Server) existingSession(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return s.store.Get(c.Value)
}

// lookupKey reads the key for a new session. A missing key is logged; the
// session reports it on its first turn.
func (s *Server) lookupKey() string {
	if s.keys == nil || s.promptForKey {
		return ""
	}
	key, err := s.keys.Lookup()
	if err != nil {
		if !errors.Is(err, gemini.ErrMissingCredential) {
			log.Printf("CREDENTIAL_LOOKUP_FAILED | err=%v", err)
		}
		return ""
	}
	return key
}

func (s *Server) setNotice(id, notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices[id] = notice
}

func (s *Server) takeNotice(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	notice := s.notices[id]
	delete(s.notices, id)
	return notice
}

func (s *Server) dropNotice(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notices, id)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_FAILED | err=%v", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}

// redirectHome sends a form post back to the chat page.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
