package api

import (
	"net/http"
	"strings"
)

// buildOpenAPIDoc returns an OpenAPI 3.1 document covering the given routes.
func buildOpenAPIDoc(routes []route) map[string]any {
	paths := map[string]any{}

	for _, rt := range routes {
		responses := map[string]any{}
		for code, desc := range rt.Responses {
			responses[code] = map[string]any{"description": desc}
		}

		operation := map[string]any{
			"operationId": operationID(rt.Method, rt.Pattern),
			"summary":     rt.Summary,
			"tags":        []string{rt.Tag},
			"responses":   responses,
		}
		if !rt.Public {
			responses["401"] = map[string]any{"description": "Missing or invalid token"}
			responses["403"] = map[string]any{"description": "Insufficient scope"}
			operation["security"] = []any{map[string]any{"BearerAuth": []string{}}}
			operation["x-scopes"] = rt.Scopes
		}

		item, ok := paths[rt.Pattern].(map[string]any)
		if !ok {
			item = map[string]any{}
			paths[rt.Pattern] = item
		}
		item[strings.ToLower(rt.Method)] = operation
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "Planview",
			"version": "1.0",
		},
		"paths": paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}

// operationID turns "GET /api/room-mapping/for/{cadFileId}" into
// "get_api_room_mapping_for_cadFileId".
func operationID(method, pattern string) string {
	r := strings.NewReplacer("/", "_", "-", "_", "{", "", "}", "")
	return strings.ToLower(method) + r.Replace(pattern)
}

// handleOpenAPI handles GET /openapi.json (no auth).
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(s.routes()))
}
