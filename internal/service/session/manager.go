package session

import "sync"

// Manager is the registry of live sessions, keyed by the browser cookie.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating a fresh logged-out one on
// first sight of the cookie.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok = m.sessions[id]; ok {
		return sess
	}

	sess = newSession(id)
	m.sessions[id] = sess
	return sess
}

// Discard tears the session down. The next request with the same cookie
// starts over logged out; this is the logout path.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
