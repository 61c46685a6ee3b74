package api

import (
	"net/http"
	"time"

	"github.com/codebridge/codebridge/pkg/httputil"
	"github.com/codebridge/codebridge/pkg/observability"
)

// healthSimple handles GET /api/health/simple
func (s *Server) healthSimple(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// healthDetailed handles GET /api/health. It reports the overall service
// status plus per-dependency details when a health checker is configured.
func (s *Server) healthDetailed(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		status := s.health.Check(r.Context())
		if status.Status == observability.StatusUnhealthy {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		httputil.WriteSuccess(w, status)
		return
	}

	resp := HealthResponse{
		Status:    observability.StatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
	}
	if err := s.store.HealthCheck(r.Context()); err != nil {
		resp.Status = observability.StatusUnhealthy
		resp.Database = map[string]interface{}{"error": err.Error()}
		httputil.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	httputil.WriteSuccess(w, resp)
}

// healthDatabase handles GET /api/health/database and includes table counts
func (s *Server) healthDatabase(w http.ResponseWriter, r *http.Request) {
	if err := s.store.HealthCheck(r.Context()); err != nil {
		observability.FromContext(r.Context(), s.logger).
			WithField("error", err.Error()).
			Error("database health check failed")
		httputil.WriteServiceUnavailable(w, "database unavailable")
		return
	}

	projects, err := s.store.CountProjects(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	contentCount, err := s.store.CountContent(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, HealthResponse{
		Status:    observability.StatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Database: map[string]interface{}{
			"connected": true,
			"projects":  projects,
			"content":   contentCount,
		},
	})
}
