// Package middleware provides the request admission layer: bearer-token
// authentication, permission gates, and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/codebridge/codebridge/pkg/auth"
	"github.com/codebridge/codebridge/pkg/httputil"
	"github.com/codebridge/codebridge/pkg/observability"
)

type contextKey string

// identityKey stores the verified *auth.Identity in the request context
const identityKey contextKey = "identity"

// AuthMiddleware verifies bearer tokens and attaches the identity to the
// request context
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	logger     *observability.Logger
	optional   bool // If true, allow anonymous requests
}

// NewAuthMiddleware creates middleware that rejects unauthenticated requests
func NewAuthMiddleware(jwtManager *auth.JWTManager, logger *observability.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, logger: logger}
}

// NewOptionalAuthMiddleware creates middleware that admits anonymous
// requests. A present-but-invalid credential is treated as anonymous, but
// logged so misconfigured clients remain visible.
func NewOptionalAuthMiddleware(jwtManager *auth.JWTManager, logger *observability.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, logger: logger, optional: true}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			if m.optional {
				m.warnInvalid(r, "malformed authorization header")
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		identity, err := m.jwtManager.VerifyToken(parts[1])
		if err != nil {
			if m.optional {
				m.warnInvalid(r, "invalid bearer token")
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "invalid credentials")
			return
		}

		ctx := WithIdentity(r.Context(), identity)
		ctx = observability.WithSubject(ctx, identity.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) warnInvalid(r *http.Request, reason string) {
	if m.logger == nil {
		return
	}
	observability.FromContext(r.Context(), m.logger).WithFields(map[string]interface{}{
		"reason": reason,
		"path":   r.URL.Path,
	}).Warn("treating request as anonymous")
}

// WithIdentity stores the identity in the context
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the verified identity from the request, or nil for
// anonymous requests
func GetIdentity(r *http.Request) *auth.Identity {
	identity, ok := r.Context().Value(identityKey).(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

// RequirePermission gates a handler on a permission. Anonymous requests get
// 401, authenticated requests without the permission get 403.
func RequirePermission(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r)
			if identity == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			if !identity.HasPermission(perm) {
				httputil.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
