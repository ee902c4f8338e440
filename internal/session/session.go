// Package session holds the process-wide bearer token.
//
// One Session is shared by reference between the refresh job and every
// command dispatch, so a successful re-login is visible to all later sends.
package session

import "sync"

type Session struct {
	mu    sync.RWMutex
	token string
}

func New() *Session { return &Session{} }

// Set replaces the current bearer token.
func (s *Session) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Token returns the most recently stored bearer token ("" before first login).
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token has ever been stored.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
