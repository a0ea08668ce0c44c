package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-auth-nosql/internal/domain"
	jwtinfra "github.com/go-auth-nosql/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// sessionChecker resolves a token's session row so logout takes effect before
// the JWT expires.
type sessionChecker interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Auth returns middleware that validates the session token and injects claims
// into the request context. The token is taken from the Authorization header
// as a Bearer token, falling back to the "token" cookie set at registration.
// When sessions is non-nil the backing session row must still exist and be
// enabled; a logged-out session answers 401 even while its token is unexpired.
// A session-store read error fails open so the store cannot take auth down.
func Auth(provider *jwtinfra.Provider, sessions sessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if sessions != nil && claims.SessionID != "" {
				sess, err := sessions.Get(r.Context(), claims.SessionID)
				switch {
				case errors.Is(err, domain.ErrNotFound):
					writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				case err != nil:
					slog.Warn("session lookup failed, allowing request", "session_id", claims.SessionID, "err", err)
				case !sess.Enable:
					writeJSONError(w, http.StatusUnauthorized, "session disabled")
					return
				}
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	return ""
}

// ClaimsFromContext extracts session claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}
