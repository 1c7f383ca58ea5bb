package testutil

import (
	"net/http"
	"time"

	id "testament/pkg/domain"
	"testament/pkg/requestcontext"
)

// WithCaller adds a caller identity to the request context, simulating what
// the auth middleware does for authenticated requests. Invalid IDs are
// silently ignored.
func WithCaller(req *http.Request, account string) *http.Request {
	parsed, err := id.ParseAccountID(account)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCallerID(req.Context(), parsed))
}

// WithRequestTime pins the request-scoped clock, simulating the request-time
// middleware. Handlers and services observe the given instant as "now".
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
