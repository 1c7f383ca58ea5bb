package audit

import (
	"context"
	"sync"

	id "testament/pkg/domain"
)

// InMemoryStore keeps events per owner in memory. Suitable for tests and
// single-process deployments; swap in the redis stream sink for anything else.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.AccountID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.AccountID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Owner] = append(s.events[event.Owner], event)
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.AccountID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.events[owner]
	out := make([]Event, len(stored))
	copy(out, stored)
	return out, nil
}
