package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndWrap(t *testing.T) {
	t.Run("New carries code and message", func(t *testing.T) {
		err := New(CodeAlreadyClaimed, "share has already been claimed")
		assert.Equal(t, "already_claimed: share has already been claimed", err.Error())
		assert.True(t, HasCode(err, CodeAlreadyClaimed))
	})

	t.Run("Wrap preserves the chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeLedgerTransferFailed, "transfer failed")

		assert.True(t, HasCode(err, CodeLedgerTransferFailed))
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("Wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
	})

	t.Run("HasCode sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("claim: %w", New(CodeNotExecuted, "will not executed"))
		assert.True(t, HasCode(err, CodeNotExecuted))
		assert.False(t, HasCode(err, CodeNotFound))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "no will")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeAlreadyExecuted, http.StatusConflict},
		{CodeAlreadyClaimed, http.StatusConflict},
		{CodeNotExecuted, http.StatusConflict},
		{CodeInactivityNotElapsed, http.StatusConflict},
		{CodePeriodTooShort, http.StatusBadRequest},
		{CodeZeroDeposit, http.StatusBadRequest},
		{CodeEmptyList, http.StatusBadRequest},
		{CodeLengthMismatch, http.StatusBadRequest},
		{CodeInvalidBeneficiary, http.StatusBadRequest},
		{CodePercentageMismatch, http.StatusBadRequest},
		{CodeNoBeneficiaries, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeNotABeneficiary, http.StatusForbidden},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeLedgerTransferFailed, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			require.Equal(t, tc.want, HTTPStatus(tc.code))
		})
	}
}
