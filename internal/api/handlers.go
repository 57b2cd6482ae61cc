package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattjoyce/planview/internal/cad"
	"github.com/mattjoyce/planview/internal/export"
	"github.com/mattjoyce/planview/internal/roommapping"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:           "ok",
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
		EventSubscribers: s.events.Subscribers(),
	}
	if s.pending != nil {
		resp.PendingDeletions = s.pending.Len()
	}
	respondJSON(w, http.StatusOK, resp)
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// writeStoreError maps domain errors to HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, cad.ErrNotFound), errors.Is(err, roommapping.ErrNotFound), errors.Is(err, export.ErrRecordNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cad.ErrInvalid), errors.Is(err, roommapping.ErrInvalid):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(action+" failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		s.writeError(w, http.StatusInternalServerError, action+" failed")
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
