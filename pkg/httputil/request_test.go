package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	body := strings.NewReader(`{"name": "test", "platform": "github"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/projects", body)

	var dst struct {
		Name     string `json:"name"`
		Platform string `json:"platform"`
	}
	err := ParseJSON(r, &dst)

	require.NoError(t, err)
	assert.Equal(t, "test", dst.Name)
	assert.Equal(t, "github", dst.Platform)
}

func TestParseJSONInvalid(t *testing.T) {
	body := strings.NewReader(`{not json`)
	r := httptest.NewRequest(http.MethodPost, "/api/projects", body)

	var dst map[string]interface{}
	err := ParseJSON(r, &dst)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestParseJSONUnknownField(t *testing.T) {
	body := strings.NewReader(`{"name": "test", "bogus": true}`)
	r := httptest.NewRequest(http.MethodPost, "/api/projects", body)

	var dst struct {
		Name string `json:"name"`
	}
	err := ParseJSON(r, &dst)

	assert.Error(t, err)
}

func TestGetPathParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/projects/42", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "42"})

	value, err := GetPathParam(r, "id")

	require.NoError(t, err)
	assert.Equal(t, "42", value)
}

func TestGetPathParamMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)

	_, err := GetPathParam(r, "id")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing path parameter")
}

func TestGetPathParamInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/projects/42", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "42"})

	n, err := GetPathParamInt(r, "id")

	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestGetPathParamIntNotNumber(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/projects/abc", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "abc"})

	_, err := GetPathParamInt(r, "id")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be an integer")
}

func TestGetQueryParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/content?content_type=blog", nil)

	assert.Equal(t, "blog", GetQueryParam(r, "content_type", ""))
	assert.Equal(t, "fallback", GetQueryParam(r, "missing", "fallback"))
}

func TestGetQueryParamInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/content?limit=25", nil)

	n, err := GetQueryParamInt(r, "limit", 100)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = GetQueryParamInt(r, "skip", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantSkip  int
		wantLimit int
		wantErr   bool
	}{
		{name: "defaults", query: "", wantSkip: 0, wantLimit: 100},
		{name: "explicit", query: "?skip=200&limit=50", wantSkip: 200, wantLimit: 50},
		{name: "max limit", query: "?limit=1000", wantSkip: 0, wantLimit: 1000},
		{name: "negative skip", query: "?skip=-1", wantErr: true},
		{name: "zero limit", query: "?limit=0", wantErr: true},
		{name: "limit too large", query: "?limit=1001", wantErr: true},
		{name: "non-numeric skip", query: "?skip=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/projects"+tt.query, nil)

			params, err := ParsePageParams(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSkip, params.Skip)
			assert.Equal(t, tt.wantLimit, params.Limit)
		})
	}
}

func TestPageParamsPage(t *testing.T) {
	assert.Equal(t, 1, PageParams{Skip: 0, Limit: 100}.Page())
	assert.Equal(t, 3, PageParams{Skip: 200, Limit: 100}.Page())
	assert.Equal(t, 1, PageParams{Skip: 50, Limit: 100}.Page())
	assert.Equal(t, 1, PageParams{Skip: 10, Limit: 0}.Page())
}
