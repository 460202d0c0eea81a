// Package session provides thread-safe, in-memory management of canvas
// sessions. Each session owns one conversation state and serializes its
// transitions; nothing survives a process restart.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/easelhq/easel/pkg/api"
	"github.com/easelhq/easel/pkg/canvas"
)

// Session holds one conversation state behind a mutex so concurrent
// HTTP requests for the same session cannot race. The state itself is
// an immutable value; transitions swap it atomically under the lock.
type Session struct {
	id string

	mu    sync.Mutex
	state canvas.State
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the current state. Safe to serialize directly; state
// values are never mutated in place.
func (s *Session) Snapshot() canvas.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit runs the SubmitPrompt transition. Returns the outgoing request
// and true when the turn was accepted; false when the prompt was blank
// or a request is already in flight.
func (s *Session) Submit(text string, now time.Time) (*api.GenerateRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, req, ok := canvas.SubmitPrompt(s.state, text, now)
	if !ok {
		return nil, false
	}
	s.state = next
	return req, true
}

// Apply folds a turn's result back into the session.
func (s *Session) Apply(r canvas.Result, now time.Time) canvas.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = canvas.ApplyResult(s.state, r, now)
	return s.state
}

// SetReference replaces the canvas image with an uploaded file.
func (s *Session) SetReference(filename, data, mimeType string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := canvas.SetReferenceImage(s.state, filename, data, mimeType, now)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// ClearReference drops the canvas image and reference flag.
func (s *Session) ClearReference() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = canvas.ClearReference(s.state)
}

// SetUseReference toggles the reference flag. A no-op without a canvas.
func (s *Session) SetUseReference(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = canvas.SetUseReference(s.state, enabled)
}

// Manager is a thread-safe map of session ID to session. It uses a
// read-write mutex so lookups from concurrent requests do not contend.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session bound to the given model and returns it.
func (m *Manager) Create(model string) *Session {
	s := &Session{
		id:    uuid.NewString(),
		state: canvas.NewState(model),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	return s
}

// Get returns the session with the given ID, or false if none exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
