package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"parley/internal/auth"
	"parley/internal/httputil"
)

// publicPaths do not require a bearer token.
var publicPaths = map[string]bool{
	"/signup": true,
	"/login":  true,
	"/health": true,
}

// Options controls auth middleware behavior.
type Options struct {
	// Optional lets requests without a token through as FallbackUserID.
	// Dev convenience only; requests with a token are still verified.
	Optional       bool
	FallbackUserID string
}

// Auth validates the Authorization bearer token on every non-public route
// and stores the authenticated user ID in the request context. Token
// validation is delegated entirely to the verifier; no tokens are cached.
func Auth(verifier auth.TokenVerifier, opts Options, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				if opts.Optional {
					next.ServeHTTP(w, httputil.WithUserID(r, opts.FallbackUserID))
					return
				}
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			if verifier == nil {
				// No JWKS configured; only possible with Optional set.
				next.ServeHTTP(w, httputil.WithUserID(r, opts.FallbackUserID))
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}
