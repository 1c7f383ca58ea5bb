package models

import (
	"time"

	id "testament/pkg/domain"
)

// Domain events, one per successful state-changing operation. The service
// emits each exactly once after the mutation commits, never on failure.

type WillCreated struct {
	Owner            id.AccountID
	InactivityPeriod time.Duration
}

// BeneficiaryAdded is emitted once per accepted entry of a replacement, in
// input order.
type BeneficiaryAdded struct {
	Owner       id.AccountID
	Beneficiary id.AccountID
	Percent     int
}

type CheckInPerformed struct {
	Owner     id.AccountID
	Timestamp time.Time
}

// WillExecuted carries the balance snapshot that claims will be computed from.
type WillExecuted struct {
	Owner   id.AccountID
	Balance uint64
}

type InheritanceClaimed struct {
	Owner       id.AccountID
	Beneficiary id.AccountID
	Amount      uint64
}
