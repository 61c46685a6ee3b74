package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/codebridge/codebridge/pkg/httputil"
	"github.com/codebridge/codebridge/pkg/observability"
)

// ContentSummary is the list representation of a content record: bodies
// are replaced by their lengths to keep list payloads small.
type ContentSummary struct {
	ID                    int64         `json:"id"`
	ProjectID             int64         `json:"project_id"`
	ContentType           string        `json:"content_type"`
	Title                 string        `json:"title"`
	Slug                  string        `json:"slug"`
	MetaDescription       string        `json:"meta_description,omitempty"`
	Tags                  []string      `json:"tags"`
	Status                ContentStatus `json:"status"`
	RawContentLength      int           `json:"raw_content_length"`
	EnhancedContentLength int           `json:"enhanced_content_length"`
	CreatedAt             time.Time     `json:"created_at"`
}

func summarizeContent(c *Content) ContentSummary {
	return ContentSummary{
		ID:                    c.ID,
		ProjectID:             c.ProjectID,
		ContentType:           c.ContentType,
		Title:                 c.Title,
		Slug:                  c.Slug,
		MetaDescription:       c.MetaDescription,
		Tags:                  c.Tags,
		Status:                c.Status,
		RawContentLength:      len(c.RawContent),
		EnhancedContentLength: len(c.EnhancedContent),
		CreatedAt:             c.CreatedAt,
	}
}

// contentView applies the include flags to a detail response
func contentView(c *Content, includeRaw, includeEnhanced bool) *Content {
	view := *c
	if !includeRaw {
		view.RawContent = ""
	}
	if !includeEnhanced {
		view.EnhancedContent = ""
	}
	return &view
}

func boolQuery(r *http.Request, name string, defaultValue bool) bool {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// listContent handles GET /api/content
func (s *Server) listContent(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePageParams(r)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var projectID int64
	if raw := httputil.GetQueryParam(r, "project_id", ""); raw != "" {
		projectID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteValidationError(w, "invalid project_id: must be an integer")
			return
		}
	}

	filter := ContentFilter{
		ProjectID:   projectID,
		ContentType: httputil.GetQueryParam(r, "content_type", ""),
		Status:      httputil.GetQueryParam(r, "status", ""),
	}

	items, total, err := s.store.ListContent(r.Context(), filter, page.Skip, page.Limit)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	summaries := make([]ContentSummary, len(items))
	for i, item := range items {
		summaries[i] = summarizeContent(item)
	}

	httputil.WriteSuccess(w, NewPaginatedResponse("content retrieved", summaries, total, page.Skip, page.Limit))
}

// createContent handles POST /api/content
func (s *Server) createContent(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	// The referenced project must exist; a dangling reference is reported
	// as not-found rather than a constraint error.
	if _, err := s.store.GetProject(r.Context(), req.ProjectID); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	content := req.ToContent()
	if err := s.store.CreateContent(r.Context(), content); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	observability.FromContext(r.Context(), s.logger).WithFields(map[string]interface{}{
		"content_id": content.ID,
		"slug":       content.Slug,
	}).Info("content created")

	httputil.WriteCreated(w, APIResponse{
		Success: true,
		Message: "content created",
		Data:    content,
	})
}

// getContent handles GET /api/content/{id}
func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.GetPathParamInt(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	content, err := s.store.GetContent(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	includeRaw := boolQuery(r, "include_raw", false)
	includeEnhanced := boolQuery(r, "include_enhanced", false)

	httputil.WriteSuccess(w, APIResponse{
		Success: true,
		Message: "content retrieved",
		Data:    contentView(content, includeRaw, includeEnhanced),
	})
}

// getContentBySlug handles GET /api/content/by-slug/{slug}. The enhanced
// body is included by default here, matching public consumption.
func (s *Server) getContentBySlug(w http.ResponseWriter, r *http.Request) {
	slug, err := httputil.GetPathParam(r, "slug")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	content, err := s.store.GetContentBySlug(r.Context(), slug)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	includeRaw := boolQuery(r, "include_raw", false)
	includeEnhanced := boolQuery(r, "include_enhanced", true)

	httputil.WriteSuccess(w, APIResponse{
		Success: true,
		Message: "content retrieved",
		Data:    contentView(content, includeRaw, includeEnhanced),
	})
}

// updateContent handles PUT /api/content/{id}
func (s *Server) updateContent(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.GetPathParamInt(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var req UpdateContentRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	content, err := s.store.GetContent(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	if req.ProjectID != nil && *req.ProjectID != content.ProjectID {
		if _, err := s.store.GetProject(r.Context(), *req.ProjectID); err != nil {
			s.writeStoreError(w, r, err)
			return
		}
	}

	req.Apply(content)
	if err := s.store.UpdateContent(r.Context(), content); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, APIResponse{
		Success: true,
		Message: "content updated",
		Data:    content,
	})
}

// deleteContent handles DELETE /api/content/{id}
func (s *Server) deleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.GetPathParamInt(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.store.DeleteContent(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	observability.FromContext(r.Context(), s.logger).
		WithField("content_id", id).
		Info("content deleted")

	httputil.WriteSuccess(w, APIResponse{
		Success: true,
		Message: "content deleted",
	})
}
