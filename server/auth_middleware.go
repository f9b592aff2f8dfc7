package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskhub/go-task-server/internal/metrics"
	"github.com/taskhub/go-task-server/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyIdentity stores the authenticated request identity
	ContextKeyIdentity ContextKey = "identity"
)

const (
	notAuthorizedMsg = "Not authorized. Try login again."
	notAdminMsg      = "Not authorized as admin. Try login as admin."
)

// Identity is the request-scoped identity resolved by RequireAuth. It is
// rebuilt from a live user record on every request and never persisted.
type Identity struct {
	UserID  string
	Role    users.RoleType
	IsAdmin bool
	Email   string
}

// IdentityFromContext returns the identity injected by RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(ContextKeyIdentity).(Identity)
	return identity, ok
}

// bearerFromRequest extracts the session credential. The token cookie is
// checked first, then the Authorization header; first non-empty wins.
// The order is deliberate and load-bearing: clients may send both, and a
// stale header must not shadow a freshly set cookie.
func (s *Server) bearerFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(s.config.GetCookieName()); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth is middleware that validates the bearer credential and
// resolves it to a live user record. Every failure mode - missing token,
// bad signature, expiry, unknown user - rejects with the same message so
// the response never leaks whether an account exists.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rawToken := s.bearerFromRequest(r)
			if rawToken == "" {
				s.rejectUnauthorized(w, r, "missing credential")
				return
			}

			introspection, err := s.inspector.Introspect(rawToken)
			if err != nil || !introspection.Active {
				s.rejectUnauthorized(w, r, "inactive token")
				return
			}

			user, err := s.repos.Users.GetByID(r.Context(), introspection.UserID)
			if err != nil {
				s.rejectUnauthorized(w, r, "unknown user")
				return
			}

			identity := Identity{
				UserID:  user.ID,
				Role:    user.Role,
				IsAdmin: user.IsAdmin,
				Email:   user.Email,
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAdmin is middleware that restricts an operation to accounts
// with administrative capability. It composes after RequireAuth and
// never runs standalone.
func (s *Server) RequireAdmin() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !identity.IsAdmin {
				metrics.AuthRejectionsTotal.WithLabelValues("admin").Inc()
				writeError(w, http.StatusUnauthorized, notAdminMsg)
				return
			}
			next(w, r)
		}
	}
}

func (s *Server) rejectUnauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	// Reason goes to the log only, never to the caller.
	s.log.Debug().Str("path", r.URL.Path).Str("reason", reason).Msg("request not authorized")
	metrics.AuthRejectionsTotal.WithLabelValues("auth").Inc()
	writeError(w, http.StatusUnauthorized, notAuthorizedMsg)
}
