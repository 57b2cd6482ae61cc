package api

import (
	"fmt"
	"net/http"

	"github.com/mattjoyce/planview/internal/roommapping"
)

// handleListMappings handles GET /api/room-mapping.
func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	refs, err := s.mappings.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list room mappings", err)
		return
	}
	respondJSON(w, http.StatusOK, refs)
}

// handleListMappingsForCAD handles GET /api/room-mapping/for/{cadFileId}.
func (s *Server) handleListMappingsForCAD(w http.ResponseWriter, r *http.Request) {
	cadFileID, err := idParam(r, "cadFileId")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	refs, err := s.mappings.ListByCADFile(r.Context(), cadFileID)
	if err != nil {
		s.writeStoreError(w, r, "list room mappings", err)
		return
	}
	respondJSON(w, http.StatusOK, refs)
}

// handleGetMapping handles GET /api/room-mapping/{id}.
func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := s.mappings.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get room mapping", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// handleCreateMapping handles POST /api/room-mapping.
func (s *Server) handleCreateMapping(w http.ResponseWriter, r *http.Request) {
	var c roommapping.Collection
	if err := decodeJSON(w, r, &c); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = 0

	ref, err := s.mappings.Create(r.Context(), c)
	if err != nil {
		s.writeStoreError(w, r, "create room mapping", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/room-mapping/%d", ref.ID))
	respondJSON(w, http.StatusCreated, ref)
}

// handleUpdateMapping handles PUT /api/room-mapping.
func (s *Server) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	var c roommapping.Collection
	if err := decodeJSON(w, r, &c); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if c.ID <= 0 {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	ref, err := s.mappings.Update(r.Context(), c)
	if err != nil {
		s.writeStoreError(w, r, "update room mapping", err)
		return
	}
	respondJSON(w, http.StatusOK, ref)
}

// handleDeleteMapping handles DELETE /api/room-mapping/{id}.
func (s *Server) handleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ref, err := s.mappings.Delete(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "delete room mapping", err)
		return
	}
	respondJSON(w, http.StatusOK, ref)
}
