// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"log"
	"net/http"
	"runtime/debug"
	"time"
)

// MaxRequestBodySize caps form and JSON bodies.
const MaxRequestBodySize = 1 << 20

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain nests middlewares so the first listed sees the request first.
func Chain(middlewares ...func(http.Handler) http.Handler) Middleware {
	return func(h http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		return h
	}
}

// statusRecorder remembers the status a handler wrote. Handlers that never
// call WriteHeader produced a 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware writes "HTTP | METHOD /path | status | seconds" to
// logger once the handler returns.
func LoggingMiddleware(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)
			logger.Printf("HTTP | %s %s | %d | %.3fs", r.Method, r.URL.Path, sr.status, time.Since(began).Seconds())
		})
	}
}

// pageHeaders go on every response. The page carries an inline
// stylesheet and no scripts.
var pageHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'"},
	{"Cache-Control", "no-store"},
	{"Referrer-Policy", "same-origin"},
}

// SecurityHeadersMiddleware stamps pageHeaders before the handler runs.
func SecurityHeadersMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, kv := range pageHeaders {
				w.Header().Set(kv[0], kv[1])
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimitMiddleware makes reads past limit bytes fail with
// *http.MaxBytesError.
func BodyLimitMiddleware(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RecoveryMiddleware answers 500 when a handler panics and logs the stack.
func RecoveryMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				log.Printf("PANIC_RECOVERED | method=%s path=%s error=%v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
