package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mbessonov/audioscribe/internal/server/token"
)

// contextKey is the type for request context keys
type contextKey string

// UserIDKey holds the authenticated user id in the request context
const UserIDKey contextKey = "user_id"

// GetUserID extracts the authenticated user id from the request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// TokenValidator validates a bearer token of the expected kind
type TokenValidator interface {
	Validate(tokenString, expectedKind string) (*token.Claims, error)
}

// AuthMiddleware guards handlers behind access-token validation.
// Every failure — missing header, malformed header, bad token — surfaces
// to the caller as the same 401 so nothing leaks about which check
// failed; the log carries the real reason.
func AuthMiddleware(logger *slog.Logger, tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "missing Authorization header",
					slog.String("path", r.URL.Path))
				unauthorized(w)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.WarnContext(r.Context(), "malformed Authorization header",
					slog.String("path", r.URL.Path))
				unauthorized(w)
				return
			}

			claims, err := tokens.Validate(parts[1], token.KindAccess)
			if err != nil {
				logger.WarnContext(r.Context(), "access token rejected",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// unauthorized writes the uniform 401 reply
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
