package httpadapter

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kokoron/kokoron-backend/internal/auth"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

type userCtxKey string

const ctxKeyUserID userCtxKey = "user_id"

// withRequestID tags every request context with a fresh request id so
// downstream log lines correlate.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithRequestID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// jwtAuth validates the bearer token and stores the caller's user ID in
// the request context.
func jwtAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "authentication required",
				})
				return
			}

			userID, err := auth.ValidateJWT(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "invalid token",
				})
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, domain.UserID(userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerID reads the authenticated user from the request context.
func callerID(r *http.Request) domain.UserID {
	id, _ := r.Context().Value(ctxKeyUserID).(domain.UserID)
	return id
}
