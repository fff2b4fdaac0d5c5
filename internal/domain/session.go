package domain

import (
	"sync"
	"time"
)

// SessionState tracks the lifecycle of one realtime connection.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateAuthenticating
	StateActive
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the live state of one connected client in one room. The state
// only ever moves forward: connecting → authenticating → active → closing →
// closed.
type Session struct {
	ID           string
	UserID       string
	Username     string
	RoomID       string
	CreatedAt    time.Time
	LastActiveAt time.Time

	state SessionState
	mu    sync.RWMutex
}

// NewSession creates a session in the connecting state. roomID is known at
// creation because the room is part of the channel endpoint path.
func NewSession(id, roomID string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		RoomID:       roomID,
		CreatedAt:    now,
		LastActiveAt: now,
		state:        StateConnecting,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// BeginAuth moves the session into the authenticating state once the
// credential has been extracted from the channel establishment request.
func (s *Session) BeginAuth() bool {
	return s.advance(StateConnecting, StateAuthenticating)
}

// Activate records the verified identity and moves the session into the
// active state. The identity cannot change afterwards.
func (s *Session) Activate(userID, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticating {
		return false
	}
	s.UserID = userID
	s.Username = username
	s.state = StateActive
	s.LastActiveAt = time.Now()
	return true
}

// BeginClose moves the session into the closing state. Returns false if the
// session is already closing or closed, which makes teardown idempotent.
func (s *Session) BeginClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosing || s.state == StateClosed {
		return false
	}
	s.state = StateClosing
	return true
}

// Finish marks the session closed. Terminal.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}

// IsActive reports whether the session is accepting inbound payloads.
func (s *Session) IsActive() bool {
	return s.State() == StateActive
}

// Identity returns the verified user identity. Empty until active.
func (s *Session) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Username
}

// Touch records inbound activity.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}

func (s *Session) advance(from, to SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}
