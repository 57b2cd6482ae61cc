package api

import (
	"fmt"
	"net/http"

	"github.com/mattjoyce/planview/internal/cad"
)

// handleListCAD handles GET /api/cad.
func (s *Server) handleListCAD(w http.ResponseWriter, r *http.Request) {
	refs, err := s.cads.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list cad files", err)
		return
	}
	respondJSON(w, http.StatusOK, refs)
}

// handleGetCAD handles GET /api/cad/{id}.
func (s *Server) handleGetCAD(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, err := s.cads.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get cad file", err)
		return
	}
	respondJSON(w, http.StatusOK, f)
}

// handleCreateCAD handles POST /api/cad.
func (s *Server) handleCreateCAD(w http.ResponseWriter, r *http.Request) {
	var f cad.File
	if err := decodeJSON(w, r, &f); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.ID = 0

	ref, err := s.cads.Create(r.Context(), f)
	if err != nil {
		s.writeStoreError(w, r, "create cad file", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/cad/%d", ref.ID))
	respondJSON(w, http.StatusCreated, ref)
}

// handleUpdateCAD handles PUT /api/cad. The target is the id in the body.
func (s *Server) handleUpdateCAD(w http.ResponseWriter, r *http.Request) {
	var f cad.File
	if err := decodeJSON(w, r, &f); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.ID <= 0 {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	ref, err := s.cads.Update(r.Context(), f)
	if err != nil {
		s.writeStoreError(w, r, "update cad file", err)
		return
	}
	respondJSON(w, http.StatusOK, ref)
}

// handleDeleteCAD handles DELETE /api/cad/{id}.
func (s *Server) handleDeleteCAD(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ref, err := s.cads.Delete(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "delete cad file", err)
		return
	}
	respondJSON(w, http.StatusOK, ref)
}
