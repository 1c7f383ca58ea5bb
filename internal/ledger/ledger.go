// Package ledger abstracts the external settlement system holding each will's
// value pool. The registry treats it as an opaque collaborator: it can move
// balances, it never silently fails, and it never duplicates a transfer. A
// failed Transfer is surfaced to the caller and the claim that triggered it is
// rolled back, so payouts are retryable.
package ledger

import (
	"context"

	id "testament/pkg/domain"
)

// Ledger holds one vault of value per will, keyed by owner account.
type Ledger interface {
	// Credit adds funds to the owner's vault. Called on will creation and on
	// each deposit.
	Credit(ctx context.Context, vault id.AccountID, amount uint64) error

	// Debit removes funds from the owner's vault. Used to compensate a credit
	// whose surrounding operation could not complete. Returns
	// sentinel.ErrInsufficientFunds when the vault cannot cover the amount.
	Debit(ctx context.Context, vault id.AccountID, amount uint64) error

	// Transfer atomically debits the vault and credits the recipient. Returns
	// sentinel.ErrInsufficientFunds when the vault cannot cover the amount and
	// sentinel.ErrUnavailable when the backend cannot be reached. Called only
	// from inside a claim's critical section.
	Transfer(ctx context.Context, vault id.AccountID, to id.AccountID, amount uint64) error

	// Balance reports the vault's current holdings.
	Balance(ctx context.Context, vault id.AccountID) (uint64, error)
}
