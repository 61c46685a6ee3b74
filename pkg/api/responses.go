package api

import "time"

// APIResponse is the standard envelope for single-record responses
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PaginatedResponse is the envelope for list responses
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
	Pages   int         `json:"pages"`
}

// NewPaginatedResponse builds a list envelope from pagination parameters.
// Pages is the total page count at the current limit, rounded up.
func NewPaginatedResponse(message string, data interface{}, total int64, skip, limit int) PaginatedResponse {
	pages := 0
	page := 1
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
		page = (skip / limit) + 1
	}
	return PaginatedResponse{
		Success: true,
		Message: message,
		Data:    data,
		Total:   total,
		Page:    page,
		PerPage: limit,
		Pages:   pages,
	}
}

// TokenResponse is returned on successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// UserResponse describes the authenticated subject
type UserResponse struct {
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

// HealthResponse is the detailed health report for the API surface
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Database  map[string]interface{} `json:"database,omitempty"`
}
