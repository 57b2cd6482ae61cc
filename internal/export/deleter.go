package export

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"
)

// ArtifactRemover deletes a published page by path.
type ArtifactRemover interface {
	DeleteArtifact(ctx context.Context, path string) error
}

// LedgerMarker records the end of a published page.
type LedgerMarker interface {
	MarkDeleted(ctx context.Context, fileName string, at time.Time, lastError string) error
}

// Deleter is the reaper's deletion primitive: it removes the file and closes
// the ledger entry, recording the failure if removal did not succeed.
type Deleter struct {
	artifacts ArtifactRemover
	ledger    LedgerMarker
	logger    *slog.Logger
	now       func() time.Time
}

// NewDeleter creates a Deleter. ledger may be nil.
func NewDeleter(artifacts ArtifactRemover, ledger LedgerMarker, logger *slog.Logger) *Deleter {
	return &Deleter{
		artifacts: artifacts,
		ledger:    ledger,
		logger:    logger.With("component", "export"),
		now:       time.Now,
	}
}

// DeleteArtifact removes the page at path.
func (d *Deleter) DeleteArtifact(ctx context.Context, path string) error {
	delErr := d.artifacts.DeleteArtifact(ctx, path)

	if d.ledger != nil {
		lastError := ""
		if delErr != nil {
			lastError = delErr.Error()
		}
		if err := d.ledger.MarkDeleted(ctx, filepath.Base(path), d.now().UTC(), lastError); err != nil {
			d.logger.Warn("Failed to record export deletion", "file", filepath.Base(path), "error", err)
		}
	}
	return delErr
}
