package artifact

import (
	"context"
	"os"
	"time"
)

// SweepReport summarizes a sweep run.
type SweepReport struct {
	Deleted int
	Kept    int
	Removed []string
}

// Store governs the lifetime of rendered export files on local disk.
//
// The database records export file names only; absolute paths are resolved by
// the store so the export directory can move without rewriting the ledger.
type Store interface {
	// Write stores data under name and returns the artifact path.
	Write(ctx context.Context, name string, data []byte) (string, error)

	// Path resolves name to its artifact path without touching the disk.
	Path(name string) (string, error)

	// Open returns an open handle and file info for an existing artifact.
	Open(ctx context.Context, name string) (*os.File, os.FileInfo, error)

	// DeleteArtifact removes the artifact at path. Paths outside the store
	// root are refused.
	DeleteArtifact(ctx context.Context, path string) error

	// Sweep removes artifacts last modified more than olderThan ago, except
	// those keep reports as still owned.
	Sweep(ctx context.Context, olderThan time.Duration, keep func(path string) bool) (SweepReport, error)
}
