package api

import (
	"context"
	"net/http"
	"strings"

	"travel-planner/internal/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// authMiddleware validates the bearer token and stores the caller's user ID
// in the request context. Failures are reported generically: the response
// never distinguishes a missing token from an expired or forged one.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		userID, err := auth.UserIDFromToken(token, []byte(s.cfg.JWTSecret))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
