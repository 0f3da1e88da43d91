package broker

import (
	"maps"
	"sync"
	"time"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

// Session represents client state that outlives a single endpoint.
// Sessions persist across reconnects when clean session is false.
type Session struct {
	mu sync.RWMutex

	// Identity
	ClientID string

	// Subscriptions: topic filter -> granted QoS
	subscriptions map[string]packet.QoS

	createdAt int64 // Unix timestamp
	lastSeen  int64 // Unix timestamp

	// Current client (nil while disconnected)
	client *Client
}

// newSession creates a new session.
func newSession(clientID string) *Session {
	now := time.Now().Unix()
	return &Session{
		ClientID:      clientID,
		subscriptions: make(map[string]packet.QoS),
		createdAt:     now,
		lastSeen:      now,
	}
}

// Subscribe adds or updates a subscription.
func (s *Session) Subscribe(filter string, qos packet.QoS) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions[filter] = qos
}

// Unsubscribe removes a subscription.
func (s *Session) Unsubscribe(filter string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[filter]; ok {
		delete(s.subscriptions, filter)
		return true
	}
	return false
}

// Subscriptions returns a copy of all subscriptions.
func (s *Session) Subscriptions() map[string]packet.QoS {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]packet.QoS, len(s.subscriptions))
	maps.Copy(result, s.subscriptions)
	return result
}

// SetClient associates a client with this session. Pass nil on disconnect.
func (s *Session) SetClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.client = c
	s.lastSeen = time.Now().Unix()
}

// GetClient returns the associated client, or nil.
func (s *Session) GetClient() *Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.client
}

// Touch records session activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now().Unix()
	s.mu.Unlock()
}

// State returns a snapshot suitable for persistence.
func (s *Session) State() *SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make(map[string]packet.QoS, len(s.subscriptions))
	maps.Copy(subs, s.subscriptions)
	return &SessionState{
		ClientID:      s.ClientID,
		Subscriptions: subs,
		CreatedAt:     s.createdAt,
		LastSeen:      s.lastSeen,
	}
}

// restore overwrites session state from a persisted snapshot.
func (s *Session) restore(state *SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions = make(map[string]packet.QoS, len(state.Subscriptions))
	maps.Copy(s.subscriptions, state.Subscriptions)
	s.createdAt = state.CreatedAt
	s.lastSeen = state.LastSeen
}

// SessionManager manages all sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// Get returns a session by client ID, or nil.
func (m *SessionManager) Get(clientID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[clientID]
}

// GetOrCreate returns an existing session or creates a new one.
// The second return value reports whether the session already existed.
func (m *SessionManager) GetOrCreate(clientID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[clientID]; ok {
		return sess, true
	}

	sess := newSession(clientID)
	m.sessions[clientID] = sess
	return sess, false
}

// Create creates a new session, replacing any existing one.
func (m *SessionManager) Create(clientID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := newSession(clientID)
	m.sessions[clientID] = sess
	return sess
}

// Delete removes a session.
func (m *SessionManager) Delete(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, clientID)
}

// All returns a snapshot of all sessions.
func (m *SessionManager) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Count returns the number of sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
