package auth

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/tradepost/tradepost/internal/shared"
)

const bearerPrefix = "Bearer "

// BearerMiddleware authenticates requests carrying a bearer token and stores
// the resulting principal in the request context. Requests without an
// Authorization header pass through unauthenticated; the authorization guards
// reject those with 401 where a principal is required. A present but invalid
// token is an authentication failure and is rejected here, before any
// authorization requirement is evaluated.
func BearerMiddleware(tokens *TokenIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok {
				shared.RespondError(w, http.StatusUnauthorized, "unsupported authorization scheme")
				return
			}
			principal, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				if logger != nil {
					logger.Debug("bearer token rejected", slog.String("path", r.URL.Path))
				}
				shared.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := shared.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
