package services

import "sync"

// SessionRegistry owns the live capture sessions, one per conversation. It is
// constructed by the transport wiring and passed in explicitly; sessions are
// not persisted and vanish with the process.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*CaptureSession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*CaptureSession)}
}

// Get returns the open session for a conversation, or nil.
func (r *SessionRegistry) Get(conversationID string) *CaptureSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[conversationID]
}

// Put installs the session for a conversation, replacing any previous one.
func (r *SessionRegistry) Put(conversationID string, s *CaptureSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[conversationID] = s
}

// Clear discards a conversation's session.
func (r *SessionRegistry) Clear(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, conversationID)
}
