// Package audit captures the domain event trail of the will registry.
//
// Every successful state-changing operation emits exactly one primary event
// (plus one beneficiary_added per accepted entry on replacement). Events are
// never emitted on failure and never duplicated; auditors and UIs rely on that.
package audit

import (
	"time"

	id "testament/pkg/domain"
)

// EventCategory classifies events by retention and routing needs.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance around the
	// disposition of funds: creation, distribution changes, execution, claims.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity: check-ins and deposits.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Owner     id.AccountID
	// Actor is who performed the action when different from Owner: the
	// executor of a will or the claiming beneficiary.
	Actor       id.AccountID
	Beneficiary id.AccountID
	Action      string
	// Amount in the smallest value unit; meaningful for deposits, executions
	// (balance snapshot), and claims (payout).
	Amount uint64
	// Percent of a beneficiary entry; meaningful for beneficiary_added.
	Percent int
	// InactivityPeriod of the will; meaningful for will_created.
	InactivityPeriod time.Duration
	RequestID        string
}

type AuditEvent string

const (
	EventWillCreated        AuditEvent = "will_created"
	EventBeneficiaryAdded   AuditEvent = "beneficiary_added"
	EventCheckInPerformed   AuditEvent = "check_in_performed"
	EventFundsDeposited     AuditEvent = "funds_deposited"
	EventWillExecuted       AuditEvent = "will_executed"
	EventInheritanceClaimed AuditEvent = "inheritance_claimed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventWillCreated:        CategoryCompliance,
	EventBeneficiaryAdded:   CategoryCompliance,
	EventWillExecuted:       CategoryCompliance,
	EventInheritanceClaimed: CategoryCompliance,

	EventCheckInPerformed: CategoryOperations,
	EventFundsDeposited:   CategoryOperations,
}

// Category returns the category for the event, defaulting to operations for
// unknown actions so nothing is dropped by category routing.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
