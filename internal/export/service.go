package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattjoyce/planview/internal/roommapping"
)

// DefaultRetention is how long a published page lives without being opened.
const DefaultRetention = 15 * time.Minute

// Config controls publishing.
type Config struct {
	// BaseURL is prefixed to the file name to form the returned link.
	BaseURL   string
	Retention time.Duration
}

// Service renders exports and publishes them as short-lived files.
type Service struct {
	cfg       Config
	cads      CADFiles
	mappings  Mappings
	renderer  *Renderer
	artifacts ArtifactWriter
	scheduler Scheduler
	ledger    LedgerWriter
	logger    *slog.Logger
	now       func() time.Time
	suffix    func() (string, error)
}

// NewService wires an export Service. ledger may be nil.
func NewService(cfg Config, cads CADFiles, mappings Mappings, renderer *Renderer, artifacts ArtifactWriter, scheduler Scheduler, ledger LedgerWriter, logger *slog.Logger) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	return &Service{
		cfg:       cfg,
		cads:      cads,
		mappings:  mappings,
		renderer:  renderer,
		artifacts: artifacts,
		scheduler: scheduler,
		ledger:    ledger,
		logger:    logger.With("component", "export"),
		now:       time.Now,
		suffix:    newSuffix,
	}
}

// Settings resolves req into the settings embedded in the page. A mapping ID
// that does not resolve is exported without a collection.
func (s *Service) Settings(ctx context.Context, req Request) (Settings, error) {
	file, err := s.cads.Get(ctx, req.CADFileID)
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{CADFile: file, ColorMap: req.ColorMap}
	if req.MappingID == nil {
		return settings, nil
	}

	collection, err := s.mappings.Get(ctx, *req.MappingID)
	switch {
	case errors.Is(err, roommapping.ErrNotFound):
		s.logger.Debug("Exporting without missing room mapping", "cad_file_id", req.CADFileID, "mapping_id", *req.MappingID)
	case err != nil:
		return Settings{}, err
	default:
		settings.RoomMappingCollection = collection
	}
	return settings, nil
}

// RenderHTML returns the export page for req.
func (s *Service) RenderHTML(ctx context.Context, req Request) (string, error) {
	settings, err := s.Settings(ctx, req)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(settings)
}

// Publish renders req to a file, schedules its deletion and returns its link.
func (s *Service) Publish(ctx context.Context, req Request) (*Link, error) {
	page, err := s.RenderHTML(ctx, req)
	if err != nil {
		return nil, err
	}

	suffix, err := s.suffix()
	if err != nil {
		return nil, fmt.Errorf("generate export suffix: %w", err)
	}
	now := s.now()
	name := FileName(req, now, suffix)

	path, err := s.artifacts.Write(ctx, name, []byte(stripPlaceholder(page)))
	if err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}

	expiresAt := now.Add(s.cfg.Retention)

	// The row has to exist before the reaper can mark it deleted.
	if s.ledger != nil {
		_, err := s.ledger.Insert(ctx, Record{
			FileName:  name,
			CADFileID: req.CADFileID,
			MappingID: req.MappingID,
			CreatedAt: now.UTC(),
			ExpiresAt: expiresAt.UTC(),
		})
		if err != nil {
			s.logger.Warn("Failed to record export", "file", name, "error", err)
		}
	}

	if err := s.scheduler.Schedule(path, s.cfg.Retention); err != nil {
		s.discard(ctx, name, path, err)
		return nil, fmt.Errorf("schedule export deletion: %w", err)
	}

	s.logger.Info("Published export", "file", name, "cad_file_id", req.CADFileID, "expires_at", expiresAt)
	return &Link{
		URL:       joinURL(s.cfg.BaseURL, name),
		FileName:  name,
		Path:      path,
		ExpiresAt: expiresAt,
	}, nil
}

// discard removes a written page whose deletion could not be scheduled.
func (s *Service) discard(ctx context.Context, name, path string, cause error) {
	lastError := ""
	if err := s.artifacts.DeleteArtifact(ctx, path); err != nil {
		s.logger.Warn("Failed to remove unscheduled export", "file", name, "error", err)
		lastError = err.Error()
	}
	if s.ledger == nil {
		return
	}
	if lastError == "" {
		lastError = "not scheduled: " + cause.Error()
	}
	if err := s.ledger.MarkDeleted(ctx, name, s.now().UTC(), lastError); err != nil {
		s.logger.Warn("Failed to record export removal", "file", name, "error", err)
	}
}

// Touch defers deletion of the published page at path. It reports whether
// the page is still scheduled.
func (s *Service) Touch(ctx context.Context, path string) bool {
	if !s.scheduler.Touch(path) {
		return false
	}
	if s.ledger == nil {
		return true
	}
	if deadline, ok := s.scheduler.Deadline(path); ok {
		if err := s.ledger.Touch(ctx, filepath.Base(path), deadline.UTC()); err != nil {
			s.logger.Warn("Failed to record export access", "file", filepath.Base(path), "error", err)
		}
	}
	return true
}

func joinURL(base, name string) string {
	if base == "" || strings.HasSuffix(base, "/") {
		return base + name
	}
	return base + "/" + name
}
