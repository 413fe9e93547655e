// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is the browser front-end for gemchat.
//
// Each browser gets its own conversation session, tracked by the
// gemchat_session cookie and held in a session.Store until it goes idle.
//
// # Endpoints
//
//   - GET  /               - Chat page
//   - POST /chat           - Form submit, redirects to /
//   - POST /credential     - Set the API key (prompt source only)
//   - POST /model          - Switch model (when selectable)
//   - POST /reset          - Start a new conversation
//   - POST /api/chat       - JSON turn: {message, model?}
//   - GET  /api/transcript - JSON transcript
//   - GET  /api/models     - JSON model list
//   - GET  /health         - Health check
//
// Replies are rendered from markdown with goldmark. Raw HTML in replies is
// never passed through.
package server
