package cart

import "sync"

// Manager tracks one State per session key. Anonymous sessions get a key from
// the client-supplied session header; authenticated ones use the user ID.
type Manager struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewManager builds an empty session registry.
func NewManager() *Manager {
	return &Manager{states: map[string]*State{}}
}

// Get returns the session's cart, creating an empty one on first access.
func (m *Manager) Get(sessionKey string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[sessionKey]
	if !ok {
		state = NewState()
		m.states[sessionKey] = state
	}
	return state
}

// Drop forgets a session's cart. Called on logout.
func (m *Manager) Drop(sessionKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sessionKey)
}
