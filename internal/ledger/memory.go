package ledger

import (
	"context"
	"sync"

	id "testament/pkg/domain"
	"testament/pkg/platform/sentinel"
)

// InMemory is a process-local ledger. Vault balances and recipient account
// balances share one keyspace: a beneficiary's credited funds live under its
// own account ID.
type InMemory struct {
	mu       sync.Mutex
	balances map[id.AccountID]uint64
}

func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[id.AccountID]uint64)}
}

func (l *InMemory) Credit(_ context.Context, vault id.AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[vault] += amount
	return nil
}

func (l *InMemory) Debit(_ context.Context, vault id.AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[vault] < amount {
		return sentinel.ErrInsufficientFunds
	}
	l.balances[vault] -= amount
	return nil
}

func (l *InMemory) Transfer(_ context.Context, vault id.AccountID, to id.AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[vault] < amount {
		return sentinel.ErrInsufficientFunds
	}
	l.balances[vault] -= amount
	l.balances[to] += amount
	return nil
}

func (l *InMemory) Balance(_ context.Context, vault id.AccountID) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[vault], nil
}
