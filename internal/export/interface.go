package export

import (
	"context"
	"time"

	"github.com/mattjoyce/planview/internal/cad"
	"github.com/mattjoyce/planview/internal/roommapping"
)

//go:generate mockgen -destination=mocks/mock_export.go -package=mocks github.com/mattjoyce/planview/internal/export CADFiles,Mappings,ArtifactWriter,Scheduler,LedgerWriter

// CADFiles loads CAD files for export.
type CADFiles interface {
	Get(ctx context.Context, id int64) (*cad.File, error)
}

// Mappings loads room mapping collections for export.
type Mappings interface {
	Get(ctx context.Context, id int64) (*roommapping.Collection, error)
}

// ArtifactWriter stores rendered pages.
type ArtifactWriter interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
	DeleteArtifact(ctx context.Context, path string) error
}

// Scheduler owns deferred deletion of published pages. reaper.Reaper
// satisfies it.
type Scheduler interface {
	Schedule(id string, delay time.Duration) error
	Touch(id string) bool
	Deadline(id string) (time.Time, bool)
}

// LedgerWriter records published pages.
type LedgerWriter interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	Touch(ctx context.Context, fileName string, expiresAt time.Time) error
	MarkDeleted(ctx context.Context, fileName string, at time.Time, lastError string) error
}
