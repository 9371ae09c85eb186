package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "agritrace/pkg/domain"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/httputil"
	"agritrace/pkg/requestcontext"
)

// TokenValidator resolves a bearer token to a caller principal.
type TokenValidator interface {
	Validate(tokenString string) (id.Principal, error)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// caller principal into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			principal, err := validator.Validate(tokenString)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}
