package models

import (
	"time"

	id "testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

// MinInactivityPeriod is the shortest inactivity window a will may be created
// with. Exactly this value is accepted; anything shorter is rejected.
const MinInactivityPeriod = 30 * 24 * time.Hour

// Beneficiary is one entry in a will's distribution: an account entitled to a
// percentage share of the executed balance, claimable exactly once.
type Beneficiary struct {
	Account      id.AccountID `json:"account"`
	SharePercent int          `json:"share_percent"`
	Claimed      bool         `json:"claimed"`
}

// BeneficiaryInput is an unvalidated (account, percent) pair as supplied by
// the owner. Validation happens in ValidateBeneficiaries before any of it
// touches a will.
type BeneficiaryInput struct {
	Account      id.AccountID
	SharePercent int
}

// Will is the aggregate root for one owner's dead-man's-switch fund.
//
// Invariants:
//   - InactivityPeriod >= MinInactivityPeriod
//   - Executed is a one-way transition; once true it never reverts
//   - Beneficiaries is non-empty before Executed may become true
//   - Balance only increases via deposits and only decreases via claim debits
//   - ExecutedBalance is the balance snapshot taken at the execution instant;
//     all shares are computed against it, never against a live balance
//   - the sum of SharePercent over Beneficiaries is exactly 100 after any
//     successful replacement (point-in-time invariant, enforced at commit)
//
// State machine: NonExistent -> Active(unexecuted) -> Executed. Active accepts
// check-in, deposit, and beneficiary replacement. Executed accepts only claims.
// No transition leaves Executed; wills are never deleted.
//
// Mutations follow the Can*/Apply* split: Can* validates against the current
// state without touching it, Apply* commits the change. The store's Execute
// callback holds the will's lock across both, so a failed validation is never
// partially applied.
type Will struct {
	Owner            id.AccountID  `json:"owner"`
	Balance          uint64        `json:"balance"`
	ExecutedBalance  uint64        `json:"executed_balance"`
	LastCheckIn      time.Time     `json:"last_check_in"`
	InactivityPeriod time.Duration `json:"inactivity_period"`
	Active           bool          `json:"active"`
	Executed         bool          `json:"executed"`
	Beneficiaries    []Beneficiary `json:"beneficiaries"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewWill constructs an Active, unexecuted will with the initial deposit.
func NewWill(owner id.AccountID, inactivityPeriod time.Duration, deposit uint64, now time.Time) (*Will, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner identity is required")
	}
	if inactivityPeriod < MinInactivityPeriod {
		return nil, dErrors.New(dErrors.CodePeriodTooShort, "inactivity period must be at least 30 days")
	}
	if deposit == 0 {
		return nil, dErrors.New(dErrors.CodeZeroDeposit, "initial deposit must be greater than zero")
	}
	return &Will{
		Owner:            owner,
		Balance:          deposit,
		LastCheckIn:      now,
		InactivityPeriod: inactivityPeriod,
		Active:           true,
		Executed:         false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Deadline returns the instant from which execution becomes permitted.
func (w *Will) Deadline() time.Time {
	return w.LastCheckIn.Add(w.InactivityPeriod)
}

// CanDeposit checks whether a deposit of the given amount is allowed.
func (w *Will) CanDeposit(amount uint64) error {
	if w.Executed {
		return dErrors.New(dErrors.CodeAlreadyExecuted, "will has already been executed")
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeZeroDeposit, "deposit amount must be greater than zero")
	}
	return nil
}

// ApplyDeposit increases the balance. Call CanDeposit first.
func (w *Will) ApplyDeposit(amount uint64, now time.Time) {
	w.Balance += amount
	w.UpdatedAt = now
}

// CanCheckIn checks whether the owner may reset the inactivity timer.
func (w *Will) CanCheckIn() error {
	if w.Executed {
		return dErrors.New(dErrors.CodeAlreadyExecuted, "will has already been executed")
	}
	return nil
}

// ApplyCheckIn resets the inactivity timer to now. Call CanCheckIn first.
func (w *Will) ApplyCheckIn(now time.Time) {
	w.LastCheckIn = now
	w.UpdatedAt = now
}

// ValidateBeneficiaries checks a candidate distribution in full before any of
// it becomes visible: non-empty, no null identities, every percent in (0,100],
// percentages summing to exactly 100. It returns the validated set or the
// first rule violation; it never mutates the will.
func ValidateBeneficiaries(entries []BeneficiaryInput) ([]Beneficiary, error) {
	if len(entries) == 0 {
		return nil, dErrors.New(dErrors.CodeEmptyList, "at least one beneficiary is required")
	}
	validated := make([]Beneficiary, 0, len(entries))
	total := 0
	for _, e := range entries {
		if e.Account.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvalidBeneficiary, "beneficiary identity must not be null")
		}
		if e.SharePercent <= 0 {
			return nil, dErrors.New(dErrors.CodeInvalidBeneficiary, "beneficiary share must be greater than zero")
		}
		total += e.SharePercent
		validated = append(validated, Beneficiary{Account: e.Account, SharePercent: e.SharePercent})
	}
	if total != 100 {
		return nil, dErrors.New(dErrors.CodePercentageMismatch, "beneficiary shares must sum to exactly 100")
	}
	return validated, nil
}

// CanReplaceBeneficiaries checks whether the beneficiary set may be replaced.
func (w *Will) CanReplaceBeneficiaries() error {
	if w.Executed {
		return dErrors.New(dErrors.CodeAlreadyExecuted, "will has already been executed")
	}
	return nil
}

// ApplyReplaceBeneficiaries swaps in a fully validated set, discarding the
// previous one. Each entry starts unclaimed. The swap is the commit point of
// the two-phase replace: validation produced the set, this installs it whole.
func (w *Will) ApplyReplaceBeneficiaries(validated []Beneficiary, now time.Time) {
	w.Beneficiaries = validated
	w.UpdatedAt = now
}

// CanExecute reports whether execution is currently permitted. Pure query:
// false when already executed, when no beneficiaries exist, or while the
// inactivity window has not elapsed.
func (w *Will) CanExecute(now time.Time) bool {
	return !w.Executed && len(w.Beneficiaries) > 0 && !now.Before(w.Deadline())
}

// CanMarkExecuted validates the execution transition, distinguishing the
// failure causes CanExecute collapses into false.
func (w *Will) CanMarkExecuted(now time.Time) error {
	if w.Executed {
		return dErrors.New(dErrors.CodeAlreadyExecuted, "will has already been executed")
	}
	if len(w.Beneficiaries) == 0 {
		return dErrors.New(dErrors.CodeNoBeneficiaries, "will has no beneficiaries")
	}
	if now.Before(w.Deadline()) {
		return dErrors.New(dErrors.CodeInactivityNotElapsed, "inactivity period has not elapsed")
	}
	return nil
}

// ApplyExecution performs the one-way transition to Executed and snapshots the
// balance that all shares will be computed from. Call CanMarkExecuted first.
func (w *Will) ApplyExecution(now time.Time) {
	w.Executed = true
	w.ExecutedBalance = w.Balance
	w.UpdatedAt = now
}

// FindBeneficiary returns a pointer into the will's beneficiary slice for the
// given account, or nil if the account is not listed.
func (w *Will) FindBeneficiary(account id.AccountID) *Beneficiary {
	for i := range w.Beneficiaries {
		if w.Beneficiaries[i].Account == account {
			return &w.Beneficiaries[i]
		}
	}
	return nil
}

// CanClaim checks whether the given account may claim its share now.
func (w *Will) CanClaim(account id.AccountID) error {
	if !w.Executed {
		return dErrors.New(dErrors.CodeNotExecuted, "will has not been executed yet")
	}
	b := w.FindBeneficiary(account)
	if b == nil {
		return dErrors.New(dErrors.CodeNotABeneficiary, "caller is not a beneficiary of this will")
	}
	if b.Claimed {
		return dErrors.New(dErrors.CodeAlreadyClaimed, "share has already been claimed")
	}
	return nil
}

// ShareAmount computes floor(executedBalance * percent / 100) for the given
// beneficiary. Integer division truncates: the amounts of all beneficiaries
// can sum to strictly less than the executed balance, and the residual dust
// stays in the vault. That is accepted behavior, not redistributed.
//
// Split into quotient and remainder parts so the intermediate product cannot
// overflow uint64 for any balance.
func (w *Will) ShareAmount(b Beneficiary) uint64 {
	p := uint64(b.SharePercent)
	return (w.ExecutedBalance/100)*p + (w.ExecutedBalance%100)*p/100
}

// ApplyClaim marks the account's share as claimed and debits the balance.
// Call CanClaim first. Returns the amount paid out.
func (w *Will) ApplyClaim(account id.AccountID, now time.Time) uint64 {
	b := w.FindBeneficiary(account)
	amount := w.ShareAmount(*b)
	b.Claimed = true
	w.Balance -= amount
	w.UpdatedAt = now
	return amount
}

// Clone returns a deep copy. The in-memory store mutates copies and commits
// them back only on success, so callers never observe half-applied changes.
func (w *Will) Clone() *Will {
	cp := *w
	cp.Beneficiaries = make([]Beneficiary, len(w.Beneficiaries))
	copy(cp.Beneficiaries, w.Beneficiaries)
	return &cp
}
