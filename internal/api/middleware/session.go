package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
)

const (
	// SessionHeader carries the anonymous session id for non-browser clients.
	SessionHeader = "X-Session-ID"
	// CustomerHeader is set by the auth gateway for signed-in customers.
	CustomerHeader = "X-Customer-ID"
	// SessionCookie holds the anonymous session id for browsers.
	SessionCookie = "sid"

	sessionCookieMaxAge = 30 * 24 * 60 * 60
	// maxSessionIDLength matches the session_id column width.
	maxSessionIDLength = 255
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	customerIDKey
)

// Session resolves who is calling and stores it on the request context.
// A browser without a session gets a fresh id in a cookie.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
		if len(sessionID) > maxSessionIDLength {
			observability.LoggerFromContext(r.Context(), "session").Debug().
				Int("length", len(sessionID)).Msg("Ignoring oversized session header")
			sessionID = ""
		}
		if sessionID == "" {
			if cookie, err := r.Cookie(SessionCookie); err == nil && len(cookie.Value) <= maxSessionIDLength {
				sessionID = cookie.Value
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   sessionCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		var customerID *int64
		if raw := strings.TrimSpace(r.Header.Get(CustomerHeader)); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err == nil && id > 0 {
				customerID = &id
			} else {
				observability.LoggerFromContext(r.Context(), "session").Debug().
					Str("value", raw).Msg("Ignoring malformed customer header")
			}
		}

		ctx := WithIdentity(r.Context(), sessionID, customerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithIdentity returns a context carrying the session and customer ids.
func WithIdentity(ctx context.Context, sessionID string, customerID *int64) context.Context {
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return context.WithValue(ctx, customerIDKey, customerID)
}

// SessionID returns the session id stored by Session, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// CustomerID returns the signed-in customer id, or nil for anonymous callers.
func CustomerID(ctx context.Context) *int64 {
	id, _ := ctx.Value(customerIDKey).(*int64)
	return id
}
