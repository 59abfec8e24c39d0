// Package store persists the current token pair between runs.
//
// The store is dumb storage: no expiry logic, no token inspection. Writes
// replace the whole pair so the cache never holds an access token newer than
// its paired refresh token's issuance.
package store

import (
	"sync"

	"github.com/and161185/ident-cli/internal/model"
)

// Store provides synchronous access to the cached token pair. Every method
// is safe for concurrent use.
type Store interface {
	// Get returns the stored pair, the sequence of the last mutation, and
	// whether a complete pair is present. A record missing either token
	// reads as absent.
	Get() (model.TokenPair, uint64, bool)
	// Set replaces the whole pair and returns the new sequence.
	Set(pair model.TokenPair) uint64
	// SetIf replaces the pair only if no mutation happened since seq was
	// observed. It reports whether the write was applied; a refused write
	// means a newer login or logout won the race and the caller's pair is
	// stale.
	SetIf(pair model.TokenPair, seq uint64) (uint64, bool)
	// Clear removes the stored pair. Counts as a mutation.
	Clear()
}

// MemStore is an in-process Store for tests and ephemeral runs.
type MemStore struct {
	mu   sync.Mutex
	pair model.TokenPair
	ok   bool
	seq  uint64
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

// Get implements Store.
func (s *MemStore) Get() (model.TokenPair, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ok || !s.pair.Complete() {
		return model.TokenPair{}, s.seq, false
	}
	return s.pair, s.seq, true
}

// Set implements Store.
func (s *MemStore) Set(pair model.TokenPair) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair, s.ok = pair, true
	s.seq++
	return s.seq
}

// SetIf implements Store.
func (s *MemStore) SetIf(pair model.TokenPair, seq uint64) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq {
		return s.seq, false
	}
	s.pair, s.ok = pair, true
	s.seq++
	return s.seq, true
}

// Clear implements Store.
func (s *MemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair, s.ok = model.TokenPair{}, false
	s.seq++
}
