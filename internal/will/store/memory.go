// Package store persists the will registry: the owner -> will mapping the
// rest of the system operates through. The registry only grows; executed
// wills stay queryable forever for audit and late claims.
package store

import (
	"context"
	"sync"

	"testament/internal/will/models"
	id "testament/pkg/domain"
	"testament/pkg/platform/sentinel"
)

// InMemory keeps wills in a process-local map with one mutex per will.
//
// Execute is the unit of mutual exclusion the domain requires: it holds the
// will's lock across the whole callback, so validation, mutation, and any
// ledger call inside the callback are atomic with respect to every other
// operation on the same will. The callback runs against a deep copy that is
// committed back only when it returns nil; a failing callback leaves the
// stored will untouched.
type InMemory struct {
	mu    sync.RWMutex
	wills map[id.AccountID]*willEntry
}

type willEntry struct {
	mu   sync.Mutex
	will *models.Will
}

func NewInMemory() *InMemory {
	return &InMemory{wills: make(map[id.AccountID]*willEntry)}
}

// Create inserts a new will. Returns sentinel.ErrConflict if the owner
// already has one; the at-most-one-will-per-owner invariant is enforced here
// under the registry lock.
func (s *InMemory) Create(_ context.Context, will *models.Will) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wills[will.Owner]; exists {
		return sentinel.ErrConflict
	}
	s.wills[will.Owner] = &willEntry{will: will.Clone()}
	return nil
}

// FindByOwner returns a snapshot copy of the owner's will.
func (s *InMemory) FindByOwner(_ context.Context, owner id.AccountID) (*models.Will, error) {
	entry, err := s.entry(owner)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.will.Clone(), nil
}

// Execute runs fn against the owner's will under its lock. fn receives a
// working copy; if it returns nil the copy replaces the stored will, otherwise
// the mutation is discarded. Returns a snapshot of the committed state.
func (s *InMemory) Execute(ctx context.Context, owner id.AccountID, fn func(*models.Will) error) (*models.Will, error) {
	entry, err := s.entry(owner)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := entry.will.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	entry.will = working
	return working.Clone(), nil
}

// Count reports how many wills the registry holds.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wills), nil
}

func (s *InMemory) entry(owner id.AccountID) (*willEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.wills[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return entry, nil
}
