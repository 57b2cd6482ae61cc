package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattjoyce/planview/internal/auth"
	"github.com/mattjoyce/planview/internal/cad"
	"github.com/mattjoyce/planview/internal/events"
	"github.com/mattjoyce/planview/internal/export"
	"github.com/mattjoyce/planview/internal/reaper"
	"github.com/mattjoyce/planview/internal/roommapping"
	"github.com/rs/cors"
)

// maxBodyBytes bounds request bodies; CAD uploads carry the whole drawing.
const maxBodyBytes = 64 << 20

// corsMaxAge is how long browsers may cache a preflight for export routes.
const corsMaxAge = 3600

// CADStore defines the CAD file persistence operations.
type CADStore interface {
	Create(ctx context.Context, f cad.File) (cad.Reference, error)
	Get(ctx context.Context, id int64) (*cad.File, error)
	List(ctx context.Context) ([]cad.Reference, error)
	Update(ctx context.Context, f cad.File) (cad.Reference, error)
	Delete(ctx context.Context, id int64) (cad.Reference, error)
}

// MappingStore defines the room mapping persistence operations.
type MappingStore interface {
	Create(ctx context.Context, c roommapping.Collection) (roommapping.Reference, error)
	Get(ctx context.Context, id int64) (*roommapping.Collection, error)
	List(ctx context.Context) ([]roommapping.Reference, error)
	ListByCADFile(ctx context.Context, cadFileID int64) ([]roommapping.Reference, error)
	Update(ctx context.Context, c roommapping.Collection) (roommapping.Reference, error)
	Delete(ctx context.Context, id int64) (roommapping.Reference, error)
}

// Exporter renders and publishes HTML exports.
type Exporter interface {
	RenderHTML(ctx context.Context, req export.Request) (string, error)
	Publish(ctx context.Context, req export.Request) (*export.Link, error)
	Touch(ctx context.Context, path string) bool
}

// ArtifactReader opens published export files.
type ArtifactReader interface {
	Open(ctx context.Context, name string) (*os.File, os.FileInfo, error)
}

// PendingLister reports scheduled export deletions.
type PendingLister interface {
	Pending() []reaper.PendingDeletion
	Len() int
}

// Config holds API server configuration
type Config struct {
	Listen string
	// APIKey is a single bearer token with full access.
	APIKey string
	// Tokens is an optional list of scoped bearer tokens.
	Tokens []auth.TokenConfig
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	cads      CADStore
	mappings  MappingStore
	exporter  Exporter
	artifacts ArtifactReader
	pending   PendingLister
	events    *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance
func New(config Config, cads CADStore, mappings MappingStore, exporter Exporter, artifacts ArtifactReader, pending PendingLister, hub *events.Hub, logger *slog.Logger) *Server {
	if hub == nil {
		hub = events.NewHub(256)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    config,
		cads:      cads,
		mappings:  mappings,
		exporter:  exporter,
		artifacts: artifacts,
		pending:   pending,
		events:    hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server (blocking)
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // /events is a long-lived stream
		IdleTimeout:  60 * time.Second,
	}

	if !auth.Enabled(s.config.APIKey, s.config.Tokens) {
		s.logger.Warn("API authentication disabled (no api_key or tokens configured)")
	}
	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoints.
	r.Get("/healthz", s.handleHealthz)
	r.Get("/openapi.json", s.handleOpenAPI)

	exportCORS := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         corsMaxAge,
	})

	for _, rt := range s.routes() {
		var chain []func(http.Handler) http.Handler
		if rt.CORS {
			chain = append(chain, exportCORS.Handler)
			// Preflights are answered by the CORS handler before this runs.
			r.With(exportCORS.Handler).Options(rt.Pattern, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		}
		if !rt.Public {
			chain = append(chain, s.authMiddleware, s.requireScopes(rt.Scopes...))
		}
		r.With(chain...).Method(rt.Method, rt.Pattern, rt.Handler)
	}

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
