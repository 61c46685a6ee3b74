package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// Pagination defaults and bounds for list endpoints.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ParseJSON decodes a JSON request body into the given destination
func ParseJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// GetPathParam extracts a path parameter from the request
func GetPathParam(r *http.Request, name string) (string, error) {
	vars := mux.Vars(r)
	value, ok := vars[name]
	if !ok || value == "" {
		return "", fmt.Errorf("missing path parameter: %s", name)
	}
	return value, nil
}

// GetPathParamInt extracts an integer path parameter from the request
func GetPathParamInt(r *http.Request, name string) (int64, error) {
	value, err := GetPathParam(r, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", name)
	}
	return n, nil
}

// GetQueryParam extracts a query parameter with a default value
func GetQueryParam(r *http.Request, name, defaultValue string) string {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetQueryParamInt extracts an integer query parameter with a default value
func GetQueryParamInt(r *http.Request, name string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", name)
	}
	return n, nil
}

// PageParams holds validated pagination parameters.
type PageParams struct {
	Skip  int
	Limit int
}

// Page computes the 1-based page number for the current offset.
func (p PageParams) Page() int {
	if p.Limit <= 0 {
		return 1
	}
	return (p.Skip / p.Limit) + 1
}

// ParsePageParams extracts and validates skip/limit query parameters.
// Skip must be non-negative; limit must be between 1 and MaxLimit.
func ParsePageParams(r *http.Request) (PageParams, error) {
	skip, err := GetQueryParamInt(r, "skip", 0)
	if err != nil {
		return PageParams{}, err
	}
	if skip < 0 {
		return PageParams{}, fmt.Errorf("invalid skip: must be non-negative")
	}
	limit, err := GetQueryParamInt(r, "limit", DefaultLimit)
	if err != nil {
		return PageParams{}, err
	}
	if limit < 1 || limit > MaxLimit {
		return PageParams{}, fmt.Errorf("invalid limit: must be between 1 and %d", MaxLimit)
	}
	return PageParams{Skip: skip, Limit: limit}, nil
}
