// Package handler is the thin HTTP layer over the will service. It decodes
// requests, resolves identities, and translates domain errors; all business
// rules live in the service and the Will aggregate.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"testament/internal/platform/metrics"
	"testament/internal/platform/middleware"
	"testament/internal/will/models"
	id "testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
	"testament/pkg/requestcontext"
)

// Service defines the will operations the handler depends on.
type Service interface {
	CreateWill(ctx context.Context, owner id.AccountID, inactivityPeriod time.Duration, deposit uint64) (*models.Will, error)
	DepositFunds(ctx context.Context, owner id.AccountID, amount uint64) error
	AddBeneficiaries(ctx context.Context, owner id.AccountID, entries []models.BeneficiaryInput) error
	CheckIn(ctx context.Context, owner id.AccountID) error
	ExecuteWill(ctx context.Context, owner id.AccountID, actor id.AccountID) error
	ClaimInheritance(ctx context.Context, owner id.AccountID, claimant id.AccountID) (uint64, error)
	ExecuteWillAndClaim(ctx context.Context, owner id.AccountID, claimant id.AccountID) (uint64, error)
	GetBeneficiaries(ctx context.Context, owner id.AccountID) ([]models.Beneficiary, error)
	GetWill(ctx context.Context, owner id.AccountID) (*models.Will, error)
	CanExecute(ctx context.Context, owner id.AccountID) bool
}

const defaultRequestTimeout = 30 * time.Second

// Handler handles will-related endpoints.
type Handler struct {
	logger   *slog.Logger
	wills    Service
	metrics  *metrics.Metrics
	verifier middleware.TokenVerifier
	timeout  time.Duration
}

// New creates a new will Handler. A zero requestTimeout falls back to the
// default.
func New(wills Service, logger *slog.Logger, m *metrics.Metrics, verifier middleware.TokenVerifier, requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Handler{
		logger:   logger,
		wills:    wills,
		metrics:  m,
		verifier: verifier,
		timeout:  requestTimeout,
	}
}

// Register registers the will routes with the chi router. All routes require
// an authenticated caller; owner-only operations bind to the caller identity,
// execute/claim routes address any owner's will.
func (h *Handler) Register(r chi.Router) {
	willRouter := chi.NewRouter()
	willRouter.Use(middleware.Recovery(h.logger))
	willRouter.Use(middleware.RequestID)
	willRouter.Use(middleware.RequestTime)
	willRouter.Use(middleware.Logger(h.logger))
	willRouter.Use(middleware.Timeout(h.timeout))
	willRouter.Use(middleware.Latency(h.metrics))
	willRouter.Use(middleware.ContentTypeJSON)
	willRouter.Use(middleware.RequireAuth(h.verifier, h.logger))

	willRouter.Post("/wills", h.handleCreateWill)
	willRouter.Post("/wills/deposit", h.handleDeposit)
	willRouter.Put("/wills/beneficiaries", h.handleSetBeneficiaries)
	willRouter.Post("/wills/checkin", h.handleCheckIn)

	willRouter.Get("/wills/{owner}", h.handleGetWill)
	willRouter.Get("/wills/{owner}/beneficiaries", h.handleGetBeneficiaries)
	willRouter.Get("/wills/{owner}/can-execute", h.handleCanExecute)
	willRouter.Post("/wills/{owner}/execute", h.handleExecute)
	willRouter.Post("/wills/{owner}/claim", h.handleClaim)
	willRouter.Post("/wills/{owner}/execute-and-claim", h.handleExecuteAndClaim)

	r.Mount("/", willRouter)
}

func (h *Handler) handleCreateWill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.CallerID(ctx)

	var req createWillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	will, err := h.wills.CreateWill(ctx, caller, req.period(), req.Deposit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWillResponse(will))
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.CallerID(ctx)

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.wills.DepositFunds(ctx, caller, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetBeneficiaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.CallerID(ctx)

	var req setBeneficiariesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	inputs, err := req.inputs()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.wills.AddBeneficiaries(ctx, caller, inputs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.CallerID(ctx)

	if err := h.wills.CheckIn(ctx, caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetWill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.ownerFromPath(w, r)
	if !ok {
		return
	}

	will, err := h.wills.GetWill(ctx, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWillResponse(will))
}

func (h *Handler) handleGetBeneficiaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.ownerFromPath(w, r)
	if !ok {
		return
	}

	beneficiaries, err := h.wills.GetBeneficiaries(ctx, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBeneficiaryResponses(beneficiaries))
}

func (h *Handler) handleCanExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.ownerFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, canExecuteResponse{CanExecute: h.wills.CanExecute(ctx, owner)})
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.ownerFromPath(w, r)
	if !ok {
		return
	}

	if err := h.wills.ExecuteWill(ctx, owner, requestcontext.CallerID(ctx)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.ownerFromPath(w, r)
	if !ok {
		return
	}

	amount, err := h.wills.ClaimInheritance(ctx, owner, requestcontext.CallerID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{Amount: amount})
}

func (h *Handler) handleExecuteAndClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.ownerFromPath(w, r)
	if !ok {
		return
	}

	amount, err := h.wills.ExecuteWillAndClaim(ctx, owner, requestcontext.CallerID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{Amount: amount})
}

func (h *Handler) ownerFromPath(w http.ResponseWriter, r *http.Request) (id.AccountID, bool) {
	owner, err := id.ParseAccountID(chi.URLParam(r, "owner"))
	if err != nil {
		writeError(w, err)
		return id.AccountID{}, false
	}
	return owner, true
}
