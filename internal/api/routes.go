package api

import "net/http"

// route is one entry of the API surface. The same table drives the router
// and the OpenAPI document.
type route struct {
	Method    string
	Pattern   string
	Summary   string
	Tag       string
	Scopes    []string
	Public    bool
	CORS      bool
	Responses map[string]string
	Handler   http.HandlerFunc
}

func (s *Server) routes() []route {
	return []route{
		// CAD files
		{
			Method:    http.MethodGet,
			Pattern:   "/api/cad",
			Tag:       "cad",
			Summary:   "List CAD file references",
			Scopes:    []string{"cad:ro", "cad:rw"},
			Responses: map[string]string{"200": "CAD file references"},
			Handler:   s.handleListCAD,
		},
		{
			Method:    http.MethodGet,
			Pattern:   "/api/cad/{id}",
			Tag:       "cad",
			Summary:   "Get a CAD file with its data",
			Scopes:    []string{"cad:ro", "cad:rw"},
			Responses: map[string]string{"200": "CAD file", "404": "Not found"},
			Handler:   s.handleGetCAD,
		},
		{
			Method:    http.MethodPost,
			Pattern:   "/api/cad",
			Tag:       "cad",
			Summary:   "Upload a CAD file",
			Scopes:    []string{"cad:rw"},
			Responses: map[string]string{"201": "Created", "400": "Invalid CAD file"},
			Handler:   s.handleCreateCAD,
		},
		{
			Method:    http.MethodPut,
			Pattern:   "/api/cad",
			Tag:       "cad",
			Summary:   "Replace a CAD file identified by the id in the body",
			Scopes:    []string{"cad:rw"},
			Responses: map[string]string{"200": "Updated", "400": "Invalid CAD file", "404": "Not found"},
			Handler:   s.handleUpdateCAD,
		},
		{
			Method:    http.MethodDelete,
			Pattern:   "/api/cad/{id}",
			Tag:       "cad",
			Summary:   "Delete a CAD file",
			Scopes:    []string{"cad:rw"},
			Responses: map[string]string{"200": "Deleted reference", "404": "Not found"},
			Handler:   s.handleDeleteCAD,
		},

		// Room mappings
		{
			Method:    http.MethodGet,
			Pattern:   "/api/room-mapping",
			Tag:       "room-mapping",
			Summary:   "List room mapping collection references",
			Scopes:    []string{"mapping:ro", "mapping:rw"},
			Responses: map[string]string{"200": "Collection references"},
			Handler:   s.handleListMappings,
		},
		{
			Method:    http.MethodGet,
			Pattern:   "/api/room-mapping/for/{cadFileId}",
			Tag:       "room-mapping",
			Summary:   "List room mapping collections for a CAD file",
			Scopes:    []string{"mapping:ro", "mapping:rw"},
			Responses: map[string]string{"200": "Collection references"},
			Handler:   s.handleListMappingsForCAD,
		},
		{
			Method:    http.MethodGet,
			Pattern:   "/api/room-mapping/{id}",
			Tag:       "room-mapping",
			Summary:   "Get a room mapping collection",
			Scopes:    []string{"mapping:ro", "mapping:rw"},
			Responses: map[string]string{"200": "Collection", "404": "Not found"},
			Handler:   s.handleGetMapping,
		},
		{
			Method:    http.MethodPost,
			Pattern:   "/api/room-mapping",
			Tag:       "room-mapping",
			Summary:   "Create a room mapping collection",
			Scopes:    []string{"mapping:rw"},
			Responses: map[string]string{"201": "Created", "400": "Invalid collection"},
			Handler:   s.handleCreateMapping,
		},
		{
			Method:    http.MethodPut,
			Pattern:   "/api/room-mapping",
			Tag:       "room-mapping",
			Summary:   "Replace a room mapping collection identified by the id in the body",
			Scopes:    []string{"mapping:rw"},
			Responses: map[string]string{"200": "Updated", "400": "Invalid collection", "404": "Not found"},
			Handler:   s.handleUpdateMapping,
		},
		{
			Method:    http.MethodDelete,
			Pattern:   "/api/room-mapping/{id}",
			Tag:       "room-mapping",
			Summary:   "Delete a room mapping collection",
			Scopes:    []string{"mapping:rw"},
			Responses: map[string]string{"200": "Deleted reference", "404": "Not found"},
			Handler:   s.handleDeleteMapping,
		},

		// Exports
		{
			Method:    http.MethodPost,
			Pattern:   "/api/export/html",
			Tag:       "export",
			Summary:   "Render an export page and return it",
			Scopes:    []string{"export:ro", "export:rw"},
			Responses: map[string]string{"200": "HTML page", "404": "CAD file not found"},
			Handler:   s.handleExportHTML,
		},
		{
			Method:    http.MethodPost,
			Pattern:   "/api/export/getLink",
			Tag:       "export",
			Summary:   "Publish an export page and return its URL",
			Scopes:    []string{"export:rw"},
			CORS:      true,
			Responses: map[string]string{"200": "Export URL (text/plain)", "404": "CAD file not found"},
			Handler:   s.handleExportLink,
		},
		{
			Method:    http.MethodGet,
			Pattern:   "/api/export/pending",
			Tag:       "export",
			Summary:   "List exports waiting for deletion",
			Scopes:    []string{"export:ro", "export:rw"},
			Responses: map[string]string{"200": "Pending deletions ordered by deadline"},
			Handler:   s.handleListPending,
		},
		{
			Method:    http.MethodGet,
			Pattern:   "/exports/{name}",
			Tag:       "export",
			Summary:   "Serve a published export and defer its deletion",
			Public:    true,
			CORS:      true,
			Responses: map[string]string{"200": "HTML page", "404": "Expired or unknown export"},
			Handler:   s.handleServeExport,
		},

		// Ops
		{
			Method:    http.MethodGet,
			Pattern:   "/events",
			Tag:       "ops",
			Summary:   "Server-sent lifecycle events, filtered by ?type= and ?artifact=",
			Scopes:    []string{"events:ro"},
			Responses: map[string]string{"200": "text/event-stream"},
			Handler:   s.handleEvents,
		},
	}
}
