package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateLegacyKeyIsAdmin(t *testing.T) {
	p, ok := Authenticate("admin-key", "admin-key", nil)
	require.True(t, ok)
	assert.True(t, HasAnyScope(p, "export:rw"))
	assert.True(t, HasAnyScope(p, "anything"))
}

func TestAuthenticateScopedToken(t *testing.T) {
	tokens := []TokenConfig{
		{Token: "viewer", Scopes: []string{"cad:ro", " export:rw ", ""}},
		{Token: "editor", Scopes: []string{"mapping:rw"}},
	}

	p, ok := Authenticate("viewer", "", tokens)
	require.True(t, ok)
	assert.True(t, HasAnyScope(p, "cad:ro"))
	assert.False(t, HasAnyScope(p, "cad:rw"))
	assert.True(t, HasAnyScope(p, "export:ro"), "rw implies ro")
	assert.False(t, HasAnyScope(p, "mapping:ro"))

	p, ok = Authenticate("editor", "", tokens)
	require.True(t, ok)
	assert.True(t, HasAnyScope(p, "mapping:ro", "mapping:rw"))

	_, ok = Authenticate("unknown", "", tokens)
	assert.False(t, ok)
	_, ok = Authenticate("", "", tokens)
	assert.False(t, ok)
}

func TestHasAnyScopeWithNoRequirement(t *testing.T) {
	assert.True(t, HasAnyScope(Principal{}))
}

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled("", nil))
	assert.True(t, Enabled("key", nil))
	assert.True(t, Enabled("", []TokenConfig{{Token: "t", Scopes: []string{"*"}}}))
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer abc", want: "abc"},
		{name: "padded", header: "Bearer   abc  ", want: "abc"},
		{name: "missing", header: "", wantErr: true},
		{name: "basic", header: "Basic abc", wantErr: true},
		{name: "empty token", header: "Bearer    ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractBearerToken(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Token: "t"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "t", p.Token)
}

func TestValidateScope(t *testing.T) {
	for _, ok := range []string{"*", "cad:ro", "cad:rw", "mapping:rw", "export:ro", "events:ro"} {
		assert.NoError(t, ValidateScope(ok), ok)
	}
	for _, bad := range []string{"cad", "plugins:ro", "cad:admin", "events:rw", ""} {
		assert.Error(t, ValidateScope(bad), bad)
	}
}
