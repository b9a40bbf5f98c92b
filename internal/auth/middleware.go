package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const staffKey contextKey = "auth.staff"

// SessionCookie is the name of the dashboard session cookie.
const SessionCookie = "accounts_session"

// Middleware wraps handlers with staff token validation.
type Middleware struct {
	service *Service
}

// NewMiddleware builds the middleware around a token service.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireStaff rejects requests without a valid staff token. The token may
// arrive as an Authorization bearer header or the session cookie.
func (m *Middleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				tokenString = cookie.Value
			}
		}
		if tokenString == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		staff, err := m.service.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "invalid or expired session", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), staffKey, staff)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// StaffFromContext returns the authenticated staff user, or nil.
func StaffFromContext(ctx context.Context) *Staff {
	staff, _ := ctx.Value(staffKey).(*Staff)
	return staff
}

// WithStaff injects a staff identity, mainly for handler tests.
func WithStaff(ctx context.Context, staff *Staff) context.Context {
	return context.WithValue(ctx, staffKey, staff)
}
