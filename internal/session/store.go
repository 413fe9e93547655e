// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultIdleTimeout is how long an untouched session survives in a Store.
const DefaultIdleTimeout = 30 * time.Minute

// =============================================================================
// SESSION STORE
// =============================================================================

// Store is an in-memory registry of isolated sessions keyed by ID. Nothing is
// persisted; evicted or restarted sessions are gone.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	onEvict     func(id string)
}

// NewStore creates an empty store. A non-positive idleTimeout selects
// DefaultIdleTimeout.
func NewStore(idleTimeout time.Duration) *Store {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Store{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
	}
}

// OnEvict registers fn to run after a session leaves the store through
// Delete or Sweep. A later call replaces fn.
func (st *Store) OnEvict(fn func(id string)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.onEvict = fn
}

func (st *Store) evicted(id string) {
	st.mu.RLock()
	fn := st.onEvict
	st.mu.RUnlock()
	if fn != nil {
		fn(id)
	}
}

// Add registers s under its ID.
func (st *Store) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID()] = s
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete closes and removes the session. It reports whether it existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Close()
		st.evicted(id)
	}
	return ok
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// IdleTimeout returns the eviction threshold.
func (st *Store) IdleTimeout() time.Duration {
	return st.idleTimeout
}

// Sweep evicts sessions idle longer than the timeout. Sessions with a turn in
// flight are kept. It returns the number evicted.
func (st *Store) Sweep() int {
	cutoff := time.Now().Add(-st.idleTimeout)

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if s.State() == StateTurnInFlight {
			continue
		}
		if s.LastActivity().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
		st.evicted(s.ID())
		log.Printf("SESSION_EXPIRED | session=%s turns=%d", s.ID(), s.Turns())
	}
	return len(expired)
}

// Run sweeps on every tick of interval until ctx is cancelled.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
