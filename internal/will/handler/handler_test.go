package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"testament/internal/ledger"
	"testament/internal/platform/middleware"
	"testament/internal/will/models"
	"testament/internal/will/service"
	willstore "testament/internal/will/store"
	id "testament/pkg/domain"
	"testament/pkg/requestcontext"
	"testament/pkg/testutil"
)

const signingKey = "test-signing-key"

func TestAuthRequired(t *testing.T) {
	router, _, _ := newWillRouter(t)

	req := testutil.NewRequest(t, http.MethodGet, "/wills/"+uuid.New().String())
	// No bearer token set
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestWillLifecycleViaHandlers(t *testing.T) {
	router, _, verifier := newWillRouter(t)
	owner := id.AccountID(uuid.New())
	heir := id.AccountID(uuid.New())

	ownerToken := issueToken(t, verifier, owner)
	heirToken := issueToken(t, verifier, heir)

	// Create the will.
	createBody := map[string]any{
		"inactivity_period_seconds": int64(models.MinInactivityPeriod / time.Second),
		"deposit":                   100,
	}
	rec := do(t, router, http.MethodPost, "/wills", ownerToken, createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating will, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Owner    string `json:"owner"`
		Balance  uint64 `json:"balance"`
		Active   bool   `json:"active"`
		Executed bool   `json:"executed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode will response: %v", err)
	}
	if created.Owner != owner.String() {
		t.Fatalf("expected owner %s, got %s", owner, created.Owner)
	}
	if created.Balance != 100 || !created.Active || created.Executed {
		t.Fatalf("unexpected created will: %+v", created)
	}

	// A second create for the same caller conflicts.
	rec = do(t, router, http.MethodPost, "/wills", ownerToken, createBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate will, got %d", rec.Code)
	}

	// Deposit more funds.
	rec = do(t, router, http.MethodPost, "/wills/deposit", ownerToken, map[string]any{"amount": 50})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 depositing, got %d", rec.Code)
	}

	// Name a beneficiary.
	rec = do(t, router, http.MethodPut, "/wills/beneficiaries", ownerToken, map[string]any{
		"beneficiaries": []string{heir.String()},
		"percentages":   []int{100},
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 setting beneficiaries, got %d: %s", rec.Code, rec.Body.String())
	}

	// Anyone authenticated can read the will and its beneficiaries.
	rec = do(t, router, http.MethodGet, "/wills/"+owner.String(), heirToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching will, got %d", rec.Code)
	}
	var fetched struct {
		Balance uint64 `json:"balance"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("failed to decode will: %v", err)
	}
	if fetched.Balance != 150 {
		t.Fatalf("expected balance 150 after deposit, got %d", fetched.Balance)
	}

	rec = do(t, router, http.MethodGet, "/wills/"+owner.String()+"/beneficiaries", heirToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching beneficiaries, got %d", rec.Code)
	}
	var beneficiaries []struct {
		Account      string `json:"account"`
		SharePercent int    `json:"share_percent"`
		Claimed      bool   `json:"claimed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&beneficiaries); err != nil {
		t.Fatalf("failed to decode beneficiaries: %v", err)
	}
	if len(beneficiaries) != 1 || beneficiaries[0].Account != heir.String() || beneficiaries[0].SharePercent != 100 {
		t.Fatalf("unexpected beneficiaries: %+v", beneficiaries)
	}

	// The window has not elapsed yet.
	rec = do(t, router, http.MethodGet, "/wills/"+owner.String()+"/can-execute", heirToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from can-execute, got %d", rec.Code)
	}
	var canExec struct {
		CanExecute bool `json:"can_execute"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&canExec); err != nil {
		t.Fatalf("failed to decode can-execute: %v", err)
	}
	if canExec.CanExecute {
		t.Fatalf("expected can_execute false while owner is active")
	}

	// Claiming before execution conflicts.
	rec = do(t, router, http.MethodPost, "/wills/"+owner.String()+"/claim", heirToken, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 claiming before execution, got %d", rec.Code)
	}

	// Owner checks in.
	rec = do(t, router, http.MethodPost, "/wills/checkin", ownerToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 checking in, got %d", rec.Code)
	}
}

// TestClaimHandlerAfterExecution drives the claim endpoint directly with an
// injected caller and a pinned clock, past the inactivity window. The routed
// tests above cannot reach this state because the request-time middleware
// stamps the wall clock.
func TestClaimHandlerAfterExecution(t *testing.T) {
	_, h, _ := newWillRouter(t)
	owner := id.AccountID(uuid.New())
	heir := id.AccountID(uuid.New())

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), base)
	if _, err := h.wills.CreateWill(ctx, owner, models.MinInactivityPeriod, 10); err != nil {
		t.Fatalf("failed to create will: %v", err)
	}
	if err := h.wills.AddBeneficiaries(ctx, owner, []models.BeneficiaryInput{
		{Account: heir, SharePercent: 100},
	}); err != nil {
		t.Fatalf("failed to set beneficiaries: %v", err)
	}

	afterDeadline := base.Add(models.MinInactivityPeriod + 24*time.Hour)
	if err := h.wills.ExecuteWill(requestcontext.WithTime(context.Background(), afterDeadline), owner, heir); err != nil {
		t.Fatalf("failed to execute will: %v", err)
	}

	req := testutil.NewRequest(t, http.MethodPost, "/wills/"+owner.String()+"/claim")
	req = testutil.WithCaller(req, heir.String())
	req = testutil.WithRequestTime(req, afterDeadline)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("owner", owner.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.handleClaim(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 claiming after execution, got %d: %s", rec.Code, rec.Body.String())
	}
	var claim struct {
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&claim); err != nil {
		t.Fatalf("failed to decode claim response: %v", err)
	}
	if claim.Amount != 10 {
		t.Fatalf("expected payout 10, got %d", claim.Amount)
	}
}

func TestSetBeneficiariesRejectsMalformedInput(t *testing.T) {
	router, _, verifier := newWillRouter(t)
	owner := id.AccountID(uuid.New())
	token := issueToken(t, verifier, owner)

	rec := do(t, router, http.MethodPost, "/wills", token, map[string]any{
		"inactivity_period_seconds": int64(models.MinInactivityPeriod / time.Second),
		"deposit":                   10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating will, got %d", rec.Code)
	}

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{
			name: "parallel array length mismatch",
			payload: map[string]any{
				"beneficiaries": []string{uuid.New().String(), uuid.New().String()},
				"percentages":   []int{100},
			},
		},
		{
			name: "invalid account id",
			payload: map[string]any{
				"beneficiaries": []string{"not-a-uuid"},
				"percentages":   []int{100},
			},
		},
		{
			name: "percentages do not sum to 100",
			payload: map[string]any{
				"beneficiaries": []string{uuid.New().String()},
				"percentages":   []int{99},
			},
		},
		{
			name: "empty list",
			payload: map[string]any{
				"beneficiaries": []string{},
				"percentages":   []int{},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPut, "/wills/beneficiaries", token, tc.payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMalformedJSONBody(t *testing.T) {
	router, _, verifier := newWillRouter(t)
	token := issueToken(t, verifier, id.AccountID(uuid.New()))

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/wills", "{not json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestInvalidOwnerInPath(t *testing.T) {
	router, _, verifier := newWillRouter(t)
	token := issueToken(t, verifier, id.AccountID(uuid.New()))

	rec := do(t, router, http.MethodGet, "/wills/not-a-uuid", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed owner id, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/wills/"+uuid.New().String(), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown owner, got %d", rec.Code)
	}
}

func TestRequestTimeoutConfiguration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.New(willstore.NewInMemory(), ledger.NewInMemory(), service.WithLogger(logger))
	verifier := middleware.NewHMACVerifier(signingKey)

	h := New(svc, logger, nil, verifier, 0)
	if h.timeout != defaultRequestTimeout {
		t.Fatalf("expected zero timeout to default to %v, got %v", defaultRequestTimeout, h.timeout)
	}

	h = New(svc, logger, nil, verifier, 5*time.Second)
	if h.timeout != 5*time.Second {
		t.Fatalf("expected configured timeout to be used, got %v", h.timeout)
	}
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(t, method, path, body)
	} else {
		req = testutil.NewRequest(t, method, path)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func issueToken(t *testing.T, verifier *middleware.HMACVerifier, account id.AccountID) string {
	t.Helper()
	token, err := verifier.IssueToken(account, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func newWillRouter(t *testing.T) (http.Handler, *Handler, *middleware.HMACVerifier) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.New(willstore.NewInMemory(), ledger.NewInMemory(), service.WithLogger(logger))
	verifier := middleware.NewHMACVerifier(signingKey)

	// Metrics stay nil here so repeated router construction does not fight
	// over the default Prometheus registry.
	h := New(svc, logger, nil, verifier, 30*time.Second)
	r := chi.NewRouter()
	h.Register(r)
	return r, h, verifier
}
