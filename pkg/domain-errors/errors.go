// Package domainerrors provides coded errors for the will registry.
//
// Every caller-visible failure carries a Code from the taxonomy below. Services
// construct these directly for domain rule violations and translate store
// sentinels (pkg/platform/sentinel) into them at the boundary. Transport layers
// map codes to HTTP statuses with HTTPStatus and never invent codes of their own.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. Codes are stable API: clients switch on
// them, tests assert on them, and log pipelines index them.
type Code string

const (
	// Registry lookups and creation.
	CodeNotFound      Code = "not_found"
	CodeAlreadyExists Code = "already_exists"

	// Will creation and funding.
	CodePeriodTooShort Code = "period_too_short"
	CodeZeroDeposit    Code = "zero_deposit"

	// Lifecycle state.
	CodeAlreadyExecuted      Code = "already_executed"
	CodeNotExecuted          Code = "not_executed"
	CodeNoBeneficiaries      Code = "no_beneficiaries"
	CodeInactivityNotElapsed Code = "inactivity_not_elapsed"

	// Beneficiary configuration.
	CodeEmptyList          Code = "empty_list"
	CodeLengthMismatch     Code = "length_mismatch"
	CodeInvalidBeneficiary Code = "invalid_beneficiary"
	CodePercentageMismatch Code = "percentage_mismatch"

	// Claims.
	CodeNotABeneficiary      Code = "not_a_beneficiary"
	CodeAlreadyClaimed       Code = "already_claimed"
	CodeLedgerTransferFailed Code = "ledger_transfer_failed"

	// Ambient.
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// Error is the concrete coded error type. Use New/Wrap rather than constructing
// it directly so the zero-code case cannot occur.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with a human-readable message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to the HTTP status the transport layer should return.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeAlreadyExecuted, CodeAlreadyClaimed, CodeNotExecuted:
		return http.StatusConflict
	case CodeInactivityNotElapsed:
		return http.StatusConflict
	case CodePeriodTooShort, CodeZeroDeposit, CodeEmptyList, CodeLengthMismatch,
		CodeInvalidBeneficiary, CodePercentageMismatch, CodeNoBeneficiaries, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotABeneficiary:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeLedgerTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
