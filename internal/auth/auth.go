// Package auth resolves bearer tokens to scoped principals.
//
// Scopes are resource:access pairs (cad:ro, cad:rw, mapping:ro, mapping:rw,
// export:ro, export:rw, events:ro) plus the wildcard "*". A rw scope implies
// the matching ro scope.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var resources = []string{"cad", "mapping", "export", "events"}

// TokenConfig is a bearer token with a set of scopes.
type TokenConfig struct {
	Token  string
	Scopes []string
}

// Principal is the authenticated caller.
type Principal struct {
	Token  string
	Scopes map[string]struct{}
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func ExtractBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errors.New("missing Authorization header")
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", errors.New("invalid Authorization header format")
	}

	token := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	if token == "" {
		return "", errors.New("missing API key")
	}
	return token, nil
}

func constantTimeEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Authenticate matches a presented bearer token against configured tokens.
// If legacyAPIKey matches, it authenticates as admin with scope "*".
func Authenticate(presented string, legacyAPIKey string, tokens []TokenConfig) (Principal, bool) {
	if constantTimeEqual(presented, legacyAPIKey) {
		return Principal{
			Token:  presented,
			Scopes: map[string]struct{}{"*": {}},
		}, true
	}

	for _, t := range tokens {
		if constantTimeEqual(presented, t.Token) {
			return Principal{
				Token:  presented,
				Scopes: normalizeScopes(t.Scopes),
			}, true
		}
	}
	return Principal{}, false
}

func normalizeScopes(scopes []string) map[string]struct{} {
	out := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}

	// Write implies read for well-known resources.
	for _, resource := range resources {
		if _, ok := out[resource+":rw"]; ok {
			out[resource+":ro"] = struct{}{}
		}
	}
	return out
}

// ValidateScope reports whether scope names a known resource and access
// level. events only has read access.
func ValidateScope(scope string) error {
	if scope == "*" {
		return nil
	}
	resource, access, ok := strings.Cut(scope, ":")
	if !ok {
		return fmt.Errorf("invalid scope %q (expected resource:access)", scope)
	}
	known := false
	for _, r := range resources {
		if r == resource {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("scope %q references unknown resource %q", scope, resource)
	}
	switch {
	case access == "ro":
	case access == "rw" && resource != "events":
	default:
		return fmt.Errorf("scope %q: invalid access %q", scope, access)
	}
	return nil
}

// Enabled reports whether any credential is configured. With none, the API
// runs without authentication.
func Enabled(legacyAPIKey string, tokens []TokenConfig) bool {
	return legacyAPIKey != "" || len(tokens) > 0
}

// HasAnyScope reports whether p holds "*" or any of required.
func HasAnyScope(p Principal, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	if _, ok := p.Scopes["*"]; ok {
		return true
	}
	for _, s := range required {
		if _, ok := p.Scopes[s]; ok {
			return true
		}
	}
	return false
}
