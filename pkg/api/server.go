// Package api implements the HTTP surface: route handlers, request and
// response types, and the store interface they are built on.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/codebridge/codebridge/pkg/auth"
	"github.com/codebridge/codebridge/pkg/httputil"
	"github.com/codebridge/codebridge/pkg/middleware"
	"github.com/codebridge/codebridge/pkg/observability"
)

// ServerOptions wires the server's dependencies
type ServerOptions struct {
	Store       Store
	Credentials auth.CredentialStore
	JWTManager  *auth.JWTManager
	Logger      *observability.Logger
	Metrics     *observability.Metrics
	Health      *observability.HealthChecker
	Version     string

	AllowedOrigins []string
	MaxBodyBytes   int64

	RateLimitEnabled bool
	StandardLimit    int
	StrictLimit      int
	RateLimitWindow  time.Duration
}

// Server is the CodeBridge API server
type Server struct {
	store       Store
	credentials auth.CredentialStore
	jwtManager  *auth.JWTManager
	logger      *observability.Logger
	metrics     *observability.Metrics
	health      *observability.HealthChecker
	version     string
	router      *mux.Router

	standardLimiter *middleware.RateLimiter
	strictLimiter   *middleware.RateLimiter
}

// NewServer creates the API server and configures its routes
func NewServer(opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = observability.DefaultLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Minute
	}

	s := &Server{
		store:       opts.Store,
		credentials: opts.Credentials,
		jwtManager:  opts.JWTManager,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		health:      opts.Health,
		version:     opts.Version,
		router:      mux.NewRouter(),
	}

	if opts.RateLimitEnabled {
		s.standardLimiter = middleware.NewRateLimiter(&middleware.RateLimitConfig{
			RequestsPerWindow: opts.StandardLimit,
			WindowDuration:    opts.RateLimitWindow,
		})
		s.strictLimiter = middleware.NewRateLimiter(&middleware.RateLimitConfig{
			RequestsPerWindow: opts.StrictLimit,
			WindowDuration:    opts.RateLimitWindow,
		})
	}

	s.setupRoutes(opts)
	return s
}

// Limiters exposes the rate limiters so their cleanup loops can be started
func (s *Server) Limiters() []*middleware.RateLimiter {
	var limiters []*middleware.RateLimiter
	if s.standardLimiter != nil {
		limiters = append(limiters, s.standardLimiter)
	}
	if s.strictLimiter != nil {
		limiters = append(limiters, s.strictLimiter)
	}
	return limiters
}

// Router returns the fully assembled handler
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes(opts ServerOptions) {
	// Outer chain applied to everything, outermost first
	outer := httputil.Chain(
		httputil.RecoveryMiddleware(s.logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.CORSMiddleware(opts.AllowedOrigins),
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(opts.MaxBodyBytes),
	)
	s.router.Use(outer)
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	api := s.router.PathPrefix("/api").Subrouter()

	// Identity context is established before rate limiting so limiter keys
	// use the username when one is present.
	optionalAuth := middleware.NewOptionalAuthMiddleware(s.jwtManager, s.logger)
	api.Use(optionalAuth.Handler)

	if s.standardLimiter != nil {
		standard := middleware.NewRateLimitMiddleware(s.standardLimiter, "standard", s.metrics)
		api.Use(standard.Handler)
	}

	requiredAuth := middleware.NewAuthMiddleware(s.jwtManager, s.logger)
	requireWrite := middleware.RequirePermission(auth.PermissionWrite)
	requireDelete := middleware.RequirePermission(auth.PermissionDelete)

	// Auth routes. Login additionally passes the strict limiter.
	login := http.Handler(http.HandlerFunc(s.login))
	if s.strictLimiter != nil {
		strict := middleware.NewRateLimitMiddleware(s.strictLimiter, "strict", s.metrics)
		login = strict.Handler(login)
	}
	api.Handle("/auth/login", login).Methods("POST")
	api.Handle("/auth/me", requiredAuth.Handler(http.HandlerFunc(s.me))).Methods("GET")
	api.Handle("/auth/logout", requiredAuth.Handler(http.HandlerFunc(s.logout))).Methods("POST")

	// Project routes
	api.HandleFunc("/projects", s.listProjects).Methods("GET")
	api.Handle("/projects", requireWrite(http.HandlerFunc(s.createProject))).Methods("POST")
	api.HandleFunc("/projects/{id:[0-9]+}", s.getProject).Methods("GET")
	api.Handle("/projects/{id:[0-9]+}", requireWrite(http.HandlerFunc(s.updateProject))).Methods("PUT")
	api.Handle("/projects/{id:[0-9]+}", requireDelete(http.HandlerFunc(s.deleteProject))).Methods("DELETE")

	// Content routes
	api.HandleFunc("/content", s.listContent).Methods("GET")
	api.Handle("/content", requireWrite(http.HandlerFunc(s.createContent))).Methods("POST")
	api.HandleFunc("/content/by-slug/{slug}", s.getContentBySlug).Methods("GET")
	api.HandleFunc("/content/{id:[0-9]+}", s.getContent).Methods("GET")
	api.Handle("/content/{id:[0-9]+}", requireWrite(http.HandlerFunc(s.updateContent))).Methods("PUT")
	api.Handle("/content/{id:[0-9]+}", requireDelete(http.HandlerFunc(s.deleteContent))).Methods("DELETE")

	// Health routes on the API surface
	api.HandleFunc("/health", s.healthDetailed).Methods("GET")
	api.HandleFunc("/health/simple", s.healthSimple).Methods("GET")
	api.HandleFunc("/health/database", s.healthDatabase).Methods("GET")
}
