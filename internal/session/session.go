// Package session owns the current identity and the bootstrap pass that
// resumes it from cached credentials.
package session

import (
	"sync"

	"github.com/and161185/ident-cli/internal/model"
)

// Session is the explicitly passed session context: the single owner of the
// current identity. Nothing else in the application holds identity state.
// Identity is derived state, recomputed from the latest successfully decoded
// access token, never diffed.
type Session struct {
	mu       sync.Mutex
	identity *model.Identity
}

// New returns an unauthenticated session.
func New() *Session { return &Session{} }

// Identity returns the current user, or ok=false when unauthenticated.
func (s *Session) Identity() (model.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return model.Identity{}, false
	}
	return *s.identity, true
}

// SetIdentity replaces the current user.
func (s *Session) SetIdentity(id model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &id
}

// Clear drops the current user. Called on logout and on any unrecoverable
// session failure.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
}
