// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/session"
)

// ============================================================================
// PAGE HANDLERS
// ============================================================================

// handleIndex handles GET /.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	data := s.buildPage(sess, s.takeNotice(sess.ID()))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("PAGE_RENDER_FAILED | session=%s err=%v", sess.ID(), err)
	}
}

// handleChatForm handles POST /chat. The turn runs to completion even if
// the browser goes away, so the reply is not lost from the transcript.
func (s *Server) handleChatForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	reply, err := sess.Submit(context.WithoutCancel(r.Context()), r.PostFormValue("message"))
	switch {
	case errors.Is(err, session.ErrEmptyInput):
	case err != nil:
		s.setNotice(sess.ID(), err.Error())
	case !reply.Recorded:
		s.setNotice(sess.ID(), reply.Text)
	}
	redirectHome(w, r)
}

// handleCredential handles POST /credential.
func (s *Server) handleCredential(w http.ResponseWriter, r *http.Request) {
	if !s.promptForKey {
		http.Error(w, "the API key is read from the secret store", http.StatusForbidden)
		return
	}
	sess := s.sessionFor(w, r)

	key := strings.TrimSpace(r.PostFormValue("key"))
	if key == "" {
		s.setNotice(sess.ID(), "Please enter your Gemini API key.")
		redirectHome(w, r)
		return
	}
	if err := sess.SetCredential(key); err != nil {
		s.setNotice(sess.ID(), err.Error())
		redirectHome(w, r)
		return
	}
	log.Printf("CREDENTIAL_SET | session=%s key=%s", sess.ID(), gemini.KeyFingerprint(key))
	redirectHome(w, r)
}

// handleModel handles POST /model.
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if err := sess.SetModel(r.PostFormValue("model")); err != nil {
		s.setNotice(sess.ID(), err.Error())
	}
	redirectHome(w, r)
}

// handleReset handles POST /reset by discarding the caller's session.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.existingSession(r); ok {
		s.takeNotice(sess.ID())
		s.store.Delete(sess.ID())
		log.Printf("SESSION_RESET | session=%s turns=%d", sess.ID(), sess.Turns())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	redirectHome(w, r)
}

// ============================================================================
// JSON API
// ============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
	// Model switches the session's model before the turn when set.
	Model string `json:"model,omitempty"`
}

// ChatResponse is the result of POST /api/chat.
type ChatResponse struct {
	session.Reply
	Model      string          `json:"model"`
	Transcript []model.Message `json:"transcript"`
}

// handleAPIChat handles POST /api/chat.
//
// Turn failures are replies, not HTTP errors: a transport failure comes back
// as 200 with kind "transport". Only a missing key (401) and requests that
// never start a turn get an error status.
func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	sess := s.sessionFor(w, r)
	if req.Model != "" && req.Model != sess.ModelID() {
		if err := sess.SetModel(req.Model); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	reply, err := sess.Submit(context.WithoutCancel(r.Context()), req.Message)
	if err != nil {
		s.writeError(w, turnErrorStatus(err), err.Error())
		return
	}

	status := http.StatusOK
	if reply.Kind == session.KindMissingCredential {
		status = http.StatusUnauthorized
	}
	s.writeJSON(w, status, ChatResponse{
		Reply:      reply,
		Model:      sess.ModelID(),
		Transcript: sess.Messages(),
	})
}

// turnErrorStatus maps errors that stop a turn before it starts.
func turnErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrTurnInFlight):
		return http.StatusConflict
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// TranscriptResponse is the result of GET /api/transcript.
type TranscriptResponse struct {
	Session  string          `json:"session"`
	Model    string          `json:"model"`
	State    string          `json:"state"`
	Turns    int             `json:"turns"`
	Messages []model.Message `json:"messages"`
}

// handleTranscript handles GET /api/transcript.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	s.writeJSON(w, http.StatusOK, TranscriptResponse{
		Session:  sess.ID(),
		Model:    sess.ModelID(),
		State:    sess.State().String(),
		Turns:    sess.Turns(),
		Messages: sess.Messages(),
	})
}

// ModelEntry is one model in GET /api/models.
type ModelEntry struct {
	model.ModelInfo
	Current bool `json:"current"`
}

// ModelsResponse is the result of GET /api/models.
type ModelsResponse struct {
	Current    string       `json:"current"`
	Selectable bool         `json:"selectable"`
	Models     []ModelEntry `json:"models"`
}

// handleModels handles GET /api/models. A fixed-model session lists only
// its own model.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	current := sess.ModelID()

	ids := []string{current}
	if sess.Selectable() {
		ids = sess.Choices()
	}

	resp := ModelsResponse{Current: current, Selectable: sess.Selectable()}
	for _, id := range ids {
		info, ok := model.GetModelInfo(id)
		if !ok {
			info = model.ModelInfo{ID: id, Name: id}
		}
		resp.Models = append(resp.Models, ModelEntry{ModelInfo: info, Current: id == current})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// HealthResponse is the result of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
	// Credential is "prompt", "configured" or "missing".
	Credential string `json:"credential"`
}

// handleHealth handles GET /health. A missing key degrades the status but
// the server still answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:     "ok",
		Version:    Version,
		Sessions:   s.store.Len(),
		Credential: "prompt",
	}
	if !s.promptForKey {
		health.Credential = "configured"
		if s.keys == nil {
			health.Credential = "missing"
		} else if _, err := s.keys.Lookup(); err != nil {
			health.Credential = "missing"
		}
		if health.Credential == "missing" {
			health.Status = "degraded"
		}
	}
	s.writeJSON(w, http.StatusOK, health)
}
