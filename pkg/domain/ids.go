// Package domain defines strongly typed identifiers shared across the service.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects passing
// one kind of identifier where another is expected. Parse functions enforce the
// invariant that an ID is a valid, non-nil UUID at trust boundaries; internal
// code may construct IDs directly once parsed.
package domain

import (
	"github.com/google/uuid"

	dErrors "testament/pkg/domain-errors"
)

// AccountID identifies a participant: a will owner or a beneficiary. The same
// account may own its own will and be named in someone else's.
type AccountID uuid.UUID

// ParseAccountID validates and converts a string into an AccountID.
// Rejects empty strings, malformed UUIDs, and the nil UUID (the null identity).
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return AccountID{}, dErrors.New(dErrors.CodeBadRequest, "account id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, dErrors.New(dErrors.CodeBadRequest, "account id must be a valid UUID")
	}
	if u == uuid.Nil {
		return AccountID{}, dErrors.New(dErrors.CodeBadRequest, "account id must not be the nil UUID")
	}
	return AccountID(u), nil
}

func (a AccountID) String() string {
	return uuid.UUID(a).String()
}

// IsNil reports whether the ID is the zero/null identity.
func (a AccountID) IsNil() bool {
	return uuid.UUID(a) == uuid.Nil
}
