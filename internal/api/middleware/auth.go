package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/doclink-ai/doclink/internal/api"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	SessionIDKey contextKey = "session_id"
)

// TokenValidator resolves a bearer token to a user ID.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// UserAuth authenticates requests by bearer token and stores the user
// ID on the context. The optional X-Session-ID header travels with it
// for question-quota accounting; a missing header falls back to the
// user ID so a user without client-side sessions still gets counted.
func UserAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			userID, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			sessionID := r.Header.Get("X-Session-ID")
			if sessionID == "" {
				sessionID = userID
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, SessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetSessionID returns the quota session ID from context.
func GetSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(SessionIDKey).(string)
	return sessionID
}
