package session

import (
	"log"
	"sync"

	"github.com/jonathan/resume-layout/internal/measure"
)

// Manager keeps one session per résumé ID. Sessions never share state; they
// may share a measurer, which serializes its own passes.
type Manager struct {
	measurer measure.Measurer
	opts     Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a manager creating sessions with m and opts.
func NewManager(m measure.Measurer, opts Options) *Manager {
	return &Manager{measurer: m, opts: opts, sessions: make(map[string]*Session)}
}

// Get returns the open session for id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Open returns the session for id, creating it if needed.
func (m *Manager) Open(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	opts := m.opts
	if opts.Verbose && opts.OnScale == nil {
		opts.OnScale = func(v float64) { log.Printf("[session] %s view scale %.3f", id, v) }
	}
	s := New(m.measurer, opts)
	m.sessions[id] = s
	if m.opts.Verbose {
		log.Printf("[session] opened %s", id)
	}
	return s
}

// Close disposes the session for id, if any.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll disposes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
