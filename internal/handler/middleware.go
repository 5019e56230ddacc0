package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/BuzzLyutic/focusflow/pkg/respond"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

type TokenVerifier interface {
	VerifyJWT(token string) (int64, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's user id in the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respond.Error(w, r, http.StatusUnauthorized, "missing authorization header")
				return
			}

			// Extract token from Bearer format
			authParts := strings.Split(authHeader, " ")
			if len(authParts) != 2 || authParts[0] != "Bearer" {
				respond.Error(w, r, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			userID, err := verifier.VerifyJWT(authParts[1])
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the id stored by RequireAuth.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey).(int64)
	return id, ok
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}
