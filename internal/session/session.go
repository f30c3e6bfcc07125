// ABOUTME: Process-wide authentication state shared by route guards and auth handlers
// ABOUTME: Login and logout replace the whole session in one locked transition

package session

import (
	"sync"
	"time"
)

// Session is a point-in-time copy of the authentication state.
// TokenLifetime, Token and ExpiresAt are only set when Authenticated is true.
type Session struct {
	Authenticated bool          `json:"authenticated"`
	TokenLifetime time.Duration `json:"token_lifetime"`
	Token         string        `json:"token,omitempty"`
	ExpiresAt     time.Time     `json:"expires_at"`
}

// Expired reports whether an authenticated session has passed its expiry.
// A session without an expiry never expires.
func (s Session) Expired(now time.Time) bool {
	if !s.Authenticated || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Valid reports whether the session may pass a route guard at time now.
func (s Session) Valid(now time.Time) bool {
	return s.Authenticated && !s.Expired(now)
}

// State holds the single authentication state of a running process.
// The zero value and a nil *State are both unauthenticated.
type State struct {
	mu      sync.RWMutex
	current Session
	now     func() time.Time
}

// New creates an unauthenticated state
func New() *State {
	return &State{now: time.Now}
}

// Restore creates a state seeded from a previously persisted session.
// Inconsistent input (lifetime without authentication) is discarded.
func Restore(s Session) *State {
	st := New()
	if s.Authenticated {
		st.current = s
	}
	return st
}

// Login marks the state authenticated with the given token and lifetime.
// A zero lifetime records a session without expiry.
func (s *State) Login(token string, lifetime time.Duration) {
	next := Session{
		Authenticated: true,
		TokenLifetime: lifetime,
		Token:         token,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if lifetime > 0 {
		next.ExpiresAt = s.clock().Add(lifetime)
	}
	s.current = next
}

// Logout resets the state to unauthenticated.
func (s *State) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
}

// Snapshot returns a consistent copy of the current session.
func (s *State) Snapshot() Session {
	if s == nil {
		return Session{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// IsAuthenticated reports whether the state holds a valid, unexpired session.
func (s *State) IsAuthenticated() bool {
	if s == nil {
		return false
	}
	return s.Snapshot().Valid(s.Now())
}

// Token returns the bearer token of an authenticated session, or "".
func (s *State) Token() string {
	return s.Snapshot().Token
}

// Now returns the state's clock reading
func (s *State) Now() time.Time {
	if s == nil {
		return time.Now()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock()
}

// SetClock replaces the clock used for expiry. Intended for tests.
func (s *State) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *State) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
