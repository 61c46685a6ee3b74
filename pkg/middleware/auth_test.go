package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codebridge/codebridge/pkg/auth"
)

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret", "codebridge", 30*time.Minute)
}

func tokenFor(t *testing.T, m *auth.JWTManager, username string, perms ...auth.Permission) string {
	t.Helper()
	token, err := m.GenerateToken(&auth.Identity{Username: username, Permissions: perms})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

func identityCapturingHandler(captured **auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetIdentity(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	m := NewAuthMiddleware(testJWTManager(), nil)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", w.Header().Get("WWW-Authenticate"))
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	m := NewAuthMiddleware(testJWTManager(), nil)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	m := NewAuthMiddleware(testJWTManager(), nil)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	r.Header.Set("Authorization", "Bearer garbage")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtManager := testJWTManager()
	m := NewAuthMiddleware(jwtManager, nil)

	var captured *auth.Identity
	handler := m.Handler(identityCapturingHandler(&captured))

	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	r.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtManager, "user", auth.PermissionRead))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if captured == nil || captured.Username != "user" {
		t.Errorf("identity = %+v, want username user", captured)
	}
}

func TestOptionalAuthMiddleware_NoHeader(t *testing.T) {
	m := NewOptionalAuthMiddleware(testJWTManager(), nil)

	var captured *auth.Identity
	handler := m.Handler(identityCapturingHandler(&captured))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if captured != nil {
		t.Errorf("identity = %+v, want anonymous", captured)
	}
}

func TestOptionalAuthMiddleware_InvalidTokenTreatedAsAnonymous(t *testing.T) {
	m := NewOptionalAuthMiddleware(testJWTManager(), nil)

	var captured *auth.Identity
	handler := m.Handler(identityCapturingHandler(&captured))

	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	r.Header.Set("Authorization", "Bearer garbage")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if captured != nil {
		t.Errorf("identity = %+v, want anonymous", captured)
	}
}

func TestOptionalAuthMiddleware_ValidToken(t *testing.T) {
	jwtManager := testJWTManager()
	m := NewOptionalAuthMiddleware(jwtManager, nil)

	var captured *auth.Identity
	handler := m.Handler(identityCapturingHandler(&captured))

	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	r.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtManager, "admin", auth.PermissionAdmin))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if captured == nil || captured.Username != "admin" {
		t.Errorf("identity = %+v, want username admin", captured)
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name     string
		identity *auth.Identity
		perm     auth.Permission
		want     int
	}{
		{name: "anonymous", identity: nil, perm: auth.PermissionRead, want: http.StatusUnauthorized},
		{
			name:     "has permission",
			identity: &auth.Identity{Username: "user", Permissions: []auth.Permission{auth.PermissionRead, auth.PermissionWrite}},
			perm:     auth.PermissionWrite,
			want:     http.StatusOK,
		},
		{
			name:     "missing permission",
			identity: &auth.Identity{Username: "user", Permissions: []auth.Permission{auth.PermissionRead, auth.PermissionWrite}},
			perm:     auth.PermissionDelete,
			want:     http.StatusForbidden,
		},
		{
			name:     "admin implies all",
			identity: &auth.Identity{Username: "admin", Permissions: []auth.Permission{auth.PermissionAdmin}},
			perm:     auth.PermissionDelete,
			want:     http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequirePermission(tt.perm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			if tt.identity != nil {
				r = r.WithContext(WithIdentity(r.Context(), tt.identity))
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestClientKey_AuthenticatedUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	r = r.WithContext(WithIdentity(r.Context(), &auth.Identity{Username: "admin"}))

	if got := ClientKey(r); got != "user:admin" {
		t.Errorf("ClientKey() = %q, want user:admin", got)
	}
}
