package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"testament/internal/will/models"
	dErrors "testament/pkg/domain-errors"
)

type willResponse struct {
	Owner                   string    `json:"owner"`
	Balance                 uint64    `json:"balance"`
	ExecutedBalance         uint64    `json:"executed_balance,omitempty"`
	LastCheckIn             time.Time `json:"last_check_in"`
	InactivityPeriodSeconds int64     `json:"inactivity_period_seconds"`
	Deadline                time.Time `json:"deadline"`
	Active                  bool      `json:"active"`
	Executed                bool      `json:"executed"`
}

func toWillResponse(w *models.Will) willResponse {
	return willResponse{
		Owner:                   w.Owner.String(),
		Balance:                 w.Balance,
		ExecutedBalance:         w.ExecutedBalance,
		LastCheckIn:             w.LastCheckIn,
		InactivityPeriodSeconds: int64(w.InactivityPeriod / time.Second),
		Deadline:                w.Deadline(),
		Active:                  w.Active,
		Executed:                w.Executed,
	}
}

type beneficiaryResponse struct {
	Account      string `json:"account"`
	SharePercent int    `json:"share_percent"`
	Claimed      bool   `json:"claimed"`
}

func toBeneficiaryResponses(bs []models.Beneficiary) []beneficiaryResponse {
	out := make([]beneficiaryResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, beneficiaryResponse{
			Account:      b.Account.String(),
			SharePercent: b.SharePercent,
			Claimed:      b.Claimed,
		})
	}
	return out
}

type claimResponse struct {
	Amount uint64 `json:"amount"`
}

type canExecuteResponse struct {
	CanExecute bool `json:"can_execute"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates domain errors into the JSON error envelope. Codes are
// the API contract; messages are advisory.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	writeJSON(w, dErrors.HTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": messageOf(err),
	})
}

func messageOf(err error) string {
	var e *dErrors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
