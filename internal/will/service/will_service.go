package service

import (
	"context"
	"time"

	"testament/internal/audit"
	"testament/internal/will/models"
	id "testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
	"testament/pkg/requestcontext"
)

// CreateWill registers a new will for the owner with an initial deposit and
// inactivity window. The caller becomes the owner; the registry enforces at
// most one will per owner for its whole lifetime.
func (s *WillService) CreateWill(ctx context.Context, owner id.AccountID, inactivityPeriod time.Duration, deposit uint64) (*models.Will, error) {
	now := requestcontext.Now(ctx)

	will, err := models.NewWill(owner, inactivityPeriod, deposit, now)
	if err != nil {
		return nil, err
	}

	// Fund the vault before the will becomes visible: the registry never
	// deletes, so an unfunded committed will would be unrecoverable. A credit
	// failure here leaves no trace and the owner simply retries.
	if err := s.ledger.Credit(ctx, owner, deposit); err != nil {
		s.logger.ErrorContext(ctx, "vault credit failed, will not created",
			"owner", owner.String(),
			"amount", deposit,
			"error", err.Error(),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fund vault")
	}

	if err := s.wills.Create(ctx, will); err != nil {
		// Compensate the credit; the vault must not hold funds no will
		// accounts for.
		if debitErr := s.ledger.Debit(ctx, owner, deposit); debitErr != nil {
			s.logger.ErrorContext(ctx, "vault compensation failed after rejected create",
				"owner", owner.String(),
				"amount", deposit,
				"error", debitErr.Error(),
			)
		}
		return nil, wrapRegistryErr(err)
	}

	s.events.emit(ctx, audit.Event{
		Action:           string(audit.EventWillCreated),
		Owner:            owner,
		Actor:            owner,
		Amount:           deposit,
		InactivityPeriod: inactivityPeriod,
	})
	if s.metrics != nil {
		s.metrics.IncrementWillsCreated()
	}

	s.logger.InfoContext(ctx, "will created",
		"owner", owner.String(),
		"inactivity_period", inactivityPeriod.String(),
	)
	return will, nil
}

// DepositFunds increases the will's balance. Only permitted while unexecuted;
// the vault credit happens inside the will's critical section so the recorded
// balance and the vault never diverge.
func (s *WillService) DepositFunds(ctx context.Context, owner id.AccountID, amount uint64) error {
	now := requestcontext.Now(ctx)

	_, err := s.wills.Execute(ctx, owner, func(w *models.Will) error {
		if err := w.CanDeposit(amount); err != nil {
			return err
		}
		w.ApplyDeposit(amount, now)
		if err := s.ledger.Credit(ctx, owner, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to fund vault")
		}
		return nil
	})
	if err != nil {
		return wrapRegistryErr(err)
	}

	s.events.emit(ctx, audit.Event{
		Action: string(audit.EventFundsDeposited),
		Owner:  owner,
		Actor:  owner,
		Amount: amount,
	})
	if s.metrics != nil {
		s.metrics.IncrementDeposits()
	}
	return nil
}

// AddBeneficiaries atomically replaces the will's entire beneficiary set.
// The incoming list is validated in full (no null identities, every share
// positive, shares summing to exactly 100) before anything becomes visible; a
// failed call leaves the previous set completely unchanged and still
// claimable. Every accepted entry starts unclaimed.
func (s *WillService) AddBeneficiaries(ctx context.Context, owner id.AccountID, entries []models.BeneficiaryInput) error {
	now := requestcontext.Now(ctx)

	_, err := s.wills.Execute(ctx, owner, func(w *models.Will) error {
		if err := w.CanReplaceBeneficiaries(); err != nil {
			return err
		}
		validated, err := models.ValidateBeneficiaries(entries)
		if err != nil {
			return err
		}
		w.ApplyReplaceBeneficiaries(validated, now)
		return nil
	})
	if err != nil {
		return wrapRegistryErr(err)
	}

	// One event per accepted entry, in input order.
	for _, e := range entries {
		s.events.emit(ctx, audit.Event{
			Action:      string(audit.EventBeneficiaryAdded),
			Owner:       owner,
			Actor:       owner,
			Beneficiary: e.Account,
			Percent:     e.SharePercent,
		})
	}

	s.logger.InfoContext(ctx, "beneficiaries replaced",
		"owner", owner.String(),
		"count", len(entries),
	)
	return nil
}

// CheckIn resets the inactivity timer. This is the only operation that does
// so; it requires nothing beyond being invoked by the owner identity.
func (s *WillService) CheckIn(ctx context.Context, owner id.AccountID) error {
	now := requestcontext.Now(ctx)

	_, err := s.wills.Execute(ctx, owner, func(w *models.Will) error {
		if err := w.CanCheckIn(); err != nil {
			return err
		}
		w.ApplyCheckIn(now)
		return nil
	})
	if err != nil {
		return wrapRegistryErr(err)
	}

	s.events.emit(ctx, audit.Event{
		Action: string(audit.EventCheckInPerformed),
		Owner:  owner,
		Actor:  owner,
	})
	if s.metrics != nil {
		s.metrics.IncrementCheckIns()
	}
	return nil
}

// ExecuteWill performs the one-way transition to executed. Callable by anyone
// once the will has beneficiaries and the inactivity window has elapsed; the
// deadline alone does nothing until some caller acts on it.
func (s *WillService) ExecuteWill(ctx context.Context, owner id.AccountID, actor id.AccountID) error {
	now := requestcontext.Now(ctx)

	will, err := s.wills.Execute(ctx, owner, func(w *models.Will) error {
		if err := w.CanMarkExecuted(now); err != nil {
			return err
		}
		w.ApplyExecution(now)
		return nil
	})
	if err != nil {
		return wrapRegistryErr(err)
	}

	s.events.emit(ctx, audit.Event{
		Action: string(audit.EventWillExecuted),
		Owner:  owner,
		Actor:  actor,
		Amount: will.ExecutedBalance,
	})
	if s.metrics != nil {
		s.metrics.IncrementWillsExecuted()
	}

	s.logger.InfoContext(ctx, "will executed",
		"owner", owner.String(),
		"balance", will.ExecutedBalance,
	)
	return nil
}

// ClaimInheritance pays the claimant its share of the executed balance,
// exactly once. The share is floor(executedBalance * percent / 100); residual
// dust from truncation stays in the vault.
//
// The claimed flag and the ledger transfer commit or abort together: the
// transfer runs inside the will's critical section, and a transfer failure
// rolls the flag back so the same beneficiary can retry later.
func (s *WillService) ClaimInheritance(ctx context.Context, owner id.AccountID, claimant id.AccountID) (uint64, error) {
	now := requestcontext.Now(ctx)

	var amount uint64
	_, err := s.wills.Execute(ctx, owner, func(w *models.Will) error {
		if err := w.CanClaim(claimant); err != nil {
			return err
		}
		amount = w.ApplyClaim(claimant, now)
		if err := s.ledger.Transfer(ctx, owner, claimant, amount); err != nil {
			if s.metrics != nil {
				s.metrics.IncrementClaimFailures()
			}
			return dErrors.Wrap(err, dErrors.CodeLedgerTransferFailed, "ledger transfer failed; claim rolled back")
		}
		return nil
	})
	if err != nil {
		return 0, wrapRegistryErr(err)
	}

	s.emitClaimed(ctx, owner, claimant, amount)
	return amount, nil
}

// ExecuteWillAndClaim is the fused convenience form: execute if the will is
// not yet executed (an already-executed will is a no-op here, not a failure),
// then claim for the calling identity. Net effect is identical to calling the
// two steps separately, so the execution commits on its own: a claim that
// fails afterwards leaves the will executed, exactly as the two-call sequence
// would.
func (s *WillService) ExecuteWillAndClaim(ctx context.Context, owner id.AccountID, claimant id.AccountID) (uint64, error) {
	now := requestcontext.Now(ctx)

	var (
		executedNow bool
		balance     uint64
	)
	_, err := s.wills.Execute(ctx, owner, func(w *models.Will) error {
		executedNow = false
		if w.Executed {
			return nil
		}
		if err := w.CanMarkExecuted(now); err != nil {
			return err
		}
		w.ApplyExecution(now)
		executedNow = true
		balance = w.ExecutedBalance
		return nil
	})
	if err != nil {
		return 0, wrapRegistryErr(err)
	}

	if executedNow {
		s.events.emit(ctx, audit.Event{
			Action: string(audit.EventWillExecuted),
			Owner:  owner,
			Actor:  claimant,
			Amount: balance,
		})
		if s.metrics != nil {
			s.metrics.IncrementWillsExecuted()
		}
	}
	return s.ClaimInheritance(ctx, owner, claimant)
}

// GetBeneficiaries returns a read-only snapshot of the will's distribution.
func (s *WillService) GetBeneficiaries(ctx context.Context, owner id.AccountID) ([]models.Beneficiary, error) {
	will, err := s.wills.FindByOwner(ctx, owner)
	if err != nil {
		return nil, wrapRegistryErr(err)
	}
	return will.Beneficiaries, nil
}

// GetWill returns a snapshot of the will for status queries.
func (s *WillService) GetWill(ctx context.Context, owner id.AccountID) (*models.Will, error) {
	will, err := s.wills.FindByOwner(ctx, owner)
	if err != nil {
		return nil, wrapRegistryErr(err)
	}
	return will, nil
}

// CanExecute is a pure query: true only when the will exists, is unexecuted,
// has beneficiaries, and the inactivity window has elapsed.
func (s *WillService) CanExecute(ctx context.Context, owner id.AccountID) bool {
	will, err := s.wills.FindByOwner(ctx, owner)
	if err != nil {
		return false
	}
	return will.CanExecute(requestcontext.Now(ctx))
}

func (s *WillService) emitClaimed(ctx context.Context, owner, claimant id.AccountID, amount uint64) {
	s.events.emit(ctx, audit.Event{
		Action:      string(audit.EventInheritanceClaimed),
		Owner:       owner,
		Actor:       claimant,
		Beneficiary: claimant,
		Amount:      amount,
	})
	if s.metrics != nil {
		s.metrics.ObserveClaim(amount)
	}
	s.logger.InfoContext(ctx, "inheritance claimed",
		"owner", owner.String(),
		"beneficiary", claimant.String(),
		"amount", amount,
	)
}
