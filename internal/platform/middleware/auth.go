package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"onestop/internal/token"
	"onestop/pkg/requestcontext"
)

// TokenValidator validates bearer tokens into portal claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// RequireRole rejects requests whose bearer token is missing, invalid, or
// carries a different role. On success the actor lands in the request
// context for services to read.
func RequireRole(validator TokenValidator, role token.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if claims.Role != role {
				logger.WarnContext(ctx, "forbidden access - wrong role",
					"role", string(claims.Role),
					"required", string(role),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusForbidden, "insufficient role")
				return
			}

			ctx = requestcontext.WithActor(ctx, requestcontext.ActorInfo{
				Role:       string(claims.Role),
				Subject:    claims.Subject,
				Name:       claims.Name,
				Phone:      claims.Phone,
				Department: claims.Department,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
