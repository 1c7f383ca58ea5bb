package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "testament/pkg/domain"
	"testament/pkg/requestcontext"
)

// TokenVerifier validates a bearer token and returns the caller's account ID.
// The core never infers caller identity; this boundary is where it enters.
type TokenVerifier interface {
	Verify(tokenString string) (id.AccountID, error)
}

// HMACVerifier verifies HS256 tokens whose subject claim is the caller's
// account UUID.
type HMACVerifier struct {
	key []byte
}

func NewHMACVerifier(signingKey string) *HMACVerifier {
	return &HMACVerifier{key: []byte(signingKey)}
}

func (v *HMACVerifier) Verify(tokenString string) (id.AccountID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	})
	if err != nil {
		return id.AccountID{}, fmt.Errorf("parse token: %w", err)
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return id.AccountID{}, fmt.Errorf("token subject: %w", err)
	}
	return id.ParseAccountID(subject)
}

// IssueToken mints a short-lived token for the given account. Used by tests
// and local tooling; production callers arrive with tokens from the identity
// provider.
func (v *HMACVerifier) IssueToken(account id.AccountID, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   account.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// verified caller identity into the request context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized - missing bearer token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "missing or malformed Authorization header")
				return
			}

			caller, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - invalid token",
					"error", err.Error(),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCallerID(ctx, caller)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprintf(w, `{"error":"unauthorized","error_description":%q}`, description)
}
