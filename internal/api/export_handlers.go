package api

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mattjoyce/planview/internal/artifact"
	"github.com/mattjoyce/planview/internal/export"
)

func (s *Server) decodeExportRequest(w http.ResponseWriter, r *http.Request) (export.Request, bool) {
	var req export.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if req.CADFileID <= 0 {
		s.writeError(w, http.StatusBadRequest, "cadFileId is required")
		return req, false
	}
	return req, true
}

// handleExportHTML handles POST /api/export/html.
func (s *Server) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeExportRequest(w, r)
	if !ok {
		return
	}

	page, err := s.exporter.RenderHTML(r.Context(), req)
	if err != nil {
		s.writeStoreError(w, r, "render export", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, page)
}

// handleExportLink handles POST /api/export/getLink. The body is the bare URL.
func (s *Server) handleExportLink(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeExportRequest(w, r)
	if !ok {
		return
	}

	link, err := s.exporter.Publish(r.Context(), req)
	if err != nil {
		s.writeStoreError(w, r, "publish export", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Expires", link.ExpiresAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, link.URL)
}

// handleListPending handles GET /api/export/pending.
func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	resp := PendingResponse{Now: time.Now().UTC()}
	if s.pending != nil {
		resp.Pending = s.pending.Pending()
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleServeExport handles GET /exports/{name}. Each successful read pushes
// the file's deletion back by a full retention window.
func (s *Server) handleServeExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	f, info, err := s.artifacts.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, artifact.ErrInvalidName) {
			s.writeError(w, http.StatusNotFound, "export not found or expired")
			return
		}
		s.logger.Error("open export failed", "file", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "open export failed")
		return
	}
	defer f.Close()

	// The handle stays readable even if the deletion wins the race.
	if !s.exporter.Touch(r.Context(), f.Name()) {
		s.logger.Debug("served export without pending deletion", "file", name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
