package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/promptdex/pkg/handlers"
)

// ErrUnauthenticated indicates a protected route was called anonymously.
var ErrUnauthenticated = errors.New("authentication required")

// Middleware attaches the request's Caller to its context. A request with no
// Authorization header is anonymous. A malformed or unverifiable bearer token
// is rejected with 401. A nil verifier treats every request as anonymous.
func Middleware(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if v == nil || header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				unauthorized(w, logger, ErrInvalidToken)
				return
			}

			caller, err := v.Verify(r.Context(), strings.TrimSpace(raw))
			if err != nil {
				logger.Debug("token rejected", "error", err)
				unauthorized(w, logger, ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// Require rejects anonymous callers with 401.
func Require(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if FromContext(r.Context()).IsAnonymous() {
				unauthorized(w, logger, ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, logger *slog.Logger, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="promptdex"`)
	handlers.RespondError(w, logger, http.StatusUnauthorized, err)
}
