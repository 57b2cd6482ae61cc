package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/mattjoyce/planview/internal/auth"
	"github.com/mattjoyce/planview/internal/cad"
	"github.com/mattjoyce/planview/internal/reaper"
	"github.com/stretchr/testify/assert"
)

func listOne(context.Context) ([]cad.Reference, error) {
	return []cad.Reference{{ID: 1, Name: "ground floor"}}, nil
}

func TestAuthDisabledWithoutCredentials(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.cads.listFunc = listOne

	rec := ts.do(http.MethodGet, "/api/cad", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	ts := newTestServer(t, Config{APIKey: "admin-key"})
	ts.cads.listFunc = listOne

	rec := ts.do(http.MethodGet, "/api/cad", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/cad", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/cad", "", "Authorization", "Bearer admin-key")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthEnforcesScopes(t *testing.T) {
	ts := newTestServer(t, Config{Tokens: []auth.TokenConfig{
		{Token: "viewer", Scopes: []string{"cad:ro"}},
		{Token: "editor", Scopes: []string{"cad:rw"}},
	}})
	ts.cads.listFunc = listOne
	ts.cads.deleteFunc = func(_ context.Context, id int64) (cad.Reference, error) {
		return cad.Reference{ID: id}, nil
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"viewer lists", http.MethodGet, "/api/cad", "viewer", http.StatusOK},
		{"viewer cannot delete", http.MethodDelete, "/api/cad/1", "viewer", http.StatusForbidden},
		{"editor deletes", http.MethodDelete, "/api/cad/1", "editor", http.StatusOK},
		{"editor reads via rw", http.MethodGet, "/api/cad", "editor", http.StatusOK},
		{"viewer cannot read mappings", http.MethodGet, "/api/room-mapping", "viewer", http.StatusForbidden},
		{"viewer cannot publish", http.MethodPost, "/api/export/getLink", "viewer", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(tt.method, tt.path, "", "Authorization", "Bearer "+tt.token)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHealthzNeedsNoAuth(t *testing.T) {
	ts := newTestServer(t, Config{APIKey: "admin-key"})
	ts.pending.pending = make([]reaper.PendingDeletion, 2)

	rec := ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending_deletions":2`)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
