package handler

import (
	"time"

	"testament/internal/will/models"
	id "testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

type createWillRequest struct {
	InactivityPeriodSeconds int64  `json:"inactivity_period_seconds"`
	Deposit                 uint64 `json:"deposit"`
}

func (r createWillRequest) period() time.Duration {
	return time.Duration(r.InactivityPeriodSeconds) * time.Second
}

type depositRequest struct {
	Amount uint64 `json:"amount"`
}

// setBeneficiariesRequest carries parallel arrays of accounts and
// percentages. Length mismatch is a transport error caught before any
// domain call.
type setBeneficiariesRequest struct {
	Beneficiaries []string `json:"beneficiaries"`
	Percentages   []int    `json:"percentages"`
}

func (r setBeneficiariesRequest) inputs() ([]models.BeneficiaryInput, error) {
	if len(r.Beneficiaries) != len(r.Percentages) {
		return nil, dErrors.New(dErrors.CodeLengthMismatch, "beneficiaries and percentages must have the same length")
	}
	inputs := make([]models.BeneficiaryInput, 0, len(r.Beneficiaries))
	for i, raw := range r.Beneficiaries {
		account, err := id.ParseAccountID(raw)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidBeneficiary, "beneficiary identity must be a valid account id")
		}
		inputs = append(inputs, models.BeneficiaryInput{
			Account:      account,
			SharePercent: r.Percentages[i],
		})
	}
	return inputs, nil
}
