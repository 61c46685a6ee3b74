package api

import (
	"net/http"

	"github.com/codebridge/codebridge/pkg/httputil"
	"github.com/codebridge/codebridge/pkg/middleware"
	"github.com/codebridge/codebridge/pkg/observability"
)

// LoginRequest is the payload for POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login verifies credentials and issues a bearer token
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteValidationError(w, "username and password are required")
		return
	}

	identity, err := s.credentials.Verify(req.Username, req.Password)
	if err != nil {
		if s.metrics != nil {
			s.metrics.AuthFailuresTotal.WithLabelValues("bad_credentials").Inc()
		}
		observability.FromContext(r.Context(), s.logger).
			WithField("username", req.Username).
			Warn("login failed")
		httputil.WriteUnauthorized(w, "invalid credentials")
		return
	}

	token, err := s.jwtManager.GenerateToken(identity)
	if err != nil {
		observability.FromContext(r.Context(), s.logger).WithError(err).Error("token generation failed")
		httputil.WriteInternalError(w, errInternal)
		return
	}

	observability.FromContext(r.Context(), s.logger).
		WithField("username", identity.Username).
		Info("login succeeded")

	httputil.WriteSuccess(w, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.jwtManager.Expiration().Seconds()),
	})
}

// me returns the authenticated subject and its permissions
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	httputil.WriteSuccess(w, UserResponse{
		Username:    identity.Username,
		Permissions: identity.PermissionStrings(),
	})
}

// logout acknowledges the request. Tokens are stateless, so the client
// simply discards its copy; there is no revocation list.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	observability.FromContext(r.Context(), s.logger).
		WithField("username", identity.Username).
		Info("logout")

	httputil.WriteSuccess(w, APIResponse{
		Success: true,
		Message: "logged out",
	})
}
