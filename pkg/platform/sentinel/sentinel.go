package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and ledger backends return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity already exists / uniqueness violated
// - ErrInsufficientFunds: ledger vault cannot cover the requested debit
// - ErrUnavailable: backend temporarily unreachable
//
// For validation errors (bad input, rule violations), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnavailable       = errors.New("unavailable")
)
