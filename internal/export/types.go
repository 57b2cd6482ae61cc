package export

import (
	"errors"
	"time"

	"github.com/mattjoyce/planview/internal/cad"
	"github.com/mattjoyce/planview/internal/roommapping"
)

// ErrRecordNotFound is returned when the export ledger has no entry for a file.
var ErrRecordNotFound = errors.New("export record not found")

// Request selects what to export.
type Request struct {
	CADFileID int64  `json:"cadFileId"`
	MappingID *int64 `json:"mappingId,omitempty"`
	ColorMap  string `json:"colorMap,omitempty"`
}

// Settings is embedded into the exported page as app_exportSettings.
type Settings struct {
	CADFile               *cad.File               `json:"cadFile,omitempty"`
	RoomMappingCollection *roommapping.Collection `json:"roomMappingCollection,omitempty"`
	ColorMap              string                  `json:"colorMap,omitempty"`
}

// Link points at a published export.
type Link struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	Path      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Record is one row of the export ledger.
type Record struct {
	ID        string     `json:"id"`
	FileName  string     `json:"file_name"`
	CADFileID int64      `json:"cad_file_id"`
	MappingID *int64     `json:"mapping_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}
