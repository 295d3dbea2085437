package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gudang/stock-engine/auth"
)

// contextKey is a private type to avoid context key collisions.
type contextKey string

const userIDKey contextKey = "user_id"

// UserID extracts the authenticated user's ID from the request context.
// Returns empty string when unauthenticated.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// RequireAuth validates the Bearer token and injects the user ID into the
// request context. Every core operation downstream takes that explicit
// userID; there is no ambient session state.
func RequireAuth(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "Authorization required", auth.ErrMissingToken)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				writeError(w, http.StatusUnauthorized, "Authorization must use Bearer scheme", nil)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
