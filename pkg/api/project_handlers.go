package api

import (
	"net/http"

	"github.com/codebridge/codebridge/pkg/httputil"
	"github.com/codebridge/codebridge/pkg/observability"
)

// listProjects handles GET /api/projects
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePageParams(r)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	filter := ProjectFilter{
		Platform: httputil.GetQueryParam(r, "platform", ""),
		Status:   httputil.GetQueryParam(r, "status", ""),
		Language: httputil.GetQueryParam(r, "language", ""),
	}

	projects, total, err := s.store.ListProjects(r.Context(), filter, page.Skip, page.Limit)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, NewPaginatedResponse("projects retrieved", projects, total, page.Skip, page.Limit))
}

// createProject handles POST /api/projects
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	project := req.ToProject()
	if err := s.store.CreateProject(r.Context(), project); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	observability.FromContext(r.Context(), s.logger).WithFields(map[string]interface{}{
		"project_id": project.ID,
		"platform":   project.Platform,
	}).Info("project created")

	httputil.WriteCreated(w, APIResponse{
		Success: true,
		Message: "project created",
		Data:    project,
	})
}

// getProject handles GET /api/projects/{id}
func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.GetPathParamInt(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, APIResponse{
		Success: true,
		Message: "project retrieved",
		Data:    project,
	})
}

// updateProject handles PUT /api/projects/{id}
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.GetPathParamInt(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var req UpdateProjectRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	req.Apply(project)
	if err := s.store.UpdateProject(r.Context(), project); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, APIResponse{
		Success: true,
		Message: "project updated",
		Data:    project,
	})
}

// deleteProject handles DELETE /api/projects/{id}. Content records for
// the project are removed by the cascade.
func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.GetPathParamInt(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	observability.FromContext(r.Context(), s.logger).
		WithField("project_id", id).
		Info("project deleted")

	httputil.WriteSuccess(w, APIResponse{
		Success: true,
		Message: "project deleted",
	})
}
