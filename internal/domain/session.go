package domain

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// SessionState is the lifecycle state of a realtime connection.
type SessionState int

const (
	// StateConnecting is the initial state before any group is joined.
	StateConnecting SessionState = iota
	// StateBound marks a chat connection bound to a room and user.
	StateBound
	// StateJoined marks an environment connection joined to the environment group.
	StateJoined
	// StateClosed is terminal; no further transitions are allowed.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateBound:
		return "bound"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrInvalidTransition is returned when a session transition is not allowed
// from the current state.
var ErrInvalidTransition = errors.New("invalid session transition")

// Session holds per-connection state behind guarded transitions.
type Session struct {
	ID string

	mu           sync.RWMutex
	state        SessionState
	user         *User
	room         *Room
	createdAt    time.Time
	lastActiveAt time.Time
}

// NewSession creates a session in the connecting state.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		state:        StateConnecting,
		createdAt:    now,
		lastActiveAt: now,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Bind transitions connecting -> bound with a resolved room and user.
func (s *Session) Bind(user *User, room *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return fmt.Errorf("%w: bind from %s", ErrInvalidTransition, s.state)
	}
	s.state = StateBound
	s.user = user
	s.room = room
	s.lastActiveAt = time.Now()
	return nil
}

// Join transitions connecting -> joined for environment connections.
func (s *Session) Join() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return fmt.Errorf("%w: join from %s", ErrInvalidTransition, s.state)
	}
	s.state = StateJoined
	s.lastActiveAt = time.Now()
	return nil
}

// BindUser attaches a logged-in user to a joined environment session. It does
// not change the lifecycle state.
func (s *Session) BindUser(user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateJoined {
		return fmt.Errorf("%w: bind user from %s", ErrInvalidTransition, s.state)
	}
	s.user = user
	s.lastActiveAt = time.Now()
	return nil
}

// UnbindUser detaches and returns the bound user, if any.
func (s *Session) UnbindUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user
	s.user = nil
	return u
}

// Close transitions to closed from any state and reports the prior state.
func (s *Session) Close() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = StateClosed
	return prev
}

// User returns the bound user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Room returns the bound room, or nil.
func (s *Session) Room() *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

// UpdateActivity records inbound traffic on the connection.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}

// LastActive returns the last-seen timestamp.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActiveAt
}
