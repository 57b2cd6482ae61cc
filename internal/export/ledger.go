package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/planview/internal/storage"
)

// Ledger records published exports in the export_log table so operators can
// see what was written and when it went away.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// ListOptions filters Ledger.List.
type ListOptions struct {
	Limit          int
	IncludeDeleted bool
}

// Insert adds rec. An empty ID is filled with a new UUID.
func (l *Ledger) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.FileName == "" {
		return Record{}, fmt.Errorf("export record file name is empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	var mappingID sql.NullInt64
	if rec.MappingID != nil {
		mappingID = sql.NullInt64{Int64: *rec.MappingID, Valid: true}
	}

	_, err := l.db.ExecContext(ctx, `
INSERT INTO export_log(id, file_name, cad_file_id, mapping_id, created_at, expires_at)
VALUES(?, ?, ?, ?, ?, ?);
`, rec.ID, rec.FileName, rec.CADFileID, mappingID,
		rec.CreatedAt.UTC().Format(storage.TimeLayout),
		rec.ExpiresAt.UTC().Format(storage.TimeLayout))
	if err != nil {
		return Record{}, fmt.Errorf("insert export record: %w", err)
	}
	return rec, nil
}

// Touch moves the expiry of a live export.
func (l *Ledger) Touch(ctx context.Context, fileName string, expiresAt time.Time) error {
	_, err := l.db.ExecContext(ctx, `
UPDATE export_log
SET expires_at = ?
WHERE file_name = ? AND deleted_at IS NULL;
`, expiresAt.UTC().Format(storage.TimeLayout), fileName)
	if err != nil {
		return fmt.Errorf("touch export record: %w", err)
	}
	return nil
}

// MarkDeleted records that the file is gone. lastError is stored when the
// deletion failed. Files without a ledger entry are ignored.
func (l *Ledger) MarkDeleted(ctx context.Context, fileName string, at time.Time, lastError string) error {
	lastErr := sql.NullString{String: lastError, Valid: lastError != ""}
	_, err := l.db.ExecContext(ctx, `
UPDATE export_log
SET deleted_at = ?, last_error = ?
WHERE file_name = ? AND deleted_at IS NULL;
`, at.UTC().Format(storage.TimeLayout), lastErr, fileName)
	if err != nil {
		return fmt.Errorf("mark export deleted: %w", err)
	}
	return nil
}

// Get returns the ledger entry for fileName.
func (l *Ledger) Get(ctx context.Context, fileName string) (*Record, error) {
	row := l.db.QueryRowContext(ctx, `
SELECT id, file_name, cad_file_id, mapping_id, created_at, expires_at, deleted_at, last_error
FROM export_log
WHERE file_name = ?;
`, fileName)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, fileName)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns ledger entries, newest first.
func (l *Ledger) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
SELECT id, file_name, cad_file_id, mapping_id, created_at, expires_at, deleted_at, last_error
FROM export_log`
	if !opts.IncludeDeleted {
		query += `
WHERE deleted_at IS NULL`
	}
	query += `
ORDER BY created_at DESC
LIMIT ?;`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list export records: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec                  Record
		mappingID            sql.NullInt64
		createdAt, expiresAt string
		deletedAt, lastError sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.FileName, &rec.CADFileID, &mappingID, &createdAt, &expiresAt, &deletedAt, &lastError); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan export record: %w", err)
	}

	var err error
	if rec.CreatedAt, err = time.Parse(storage.TimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse export created_at: %w", err)
	}
	if rec.ExpiresAt, err = time.Parse(storage.TimeLayout, expiresAt); err != nil {
		return nil, fmt.Errorf("parse export expires_at: %w", err)
	}
	if mappingID.Valid {
		id := mappingID.Int64
		rec.MappingID = &id
	}
	if deletedAt.Valid {
		t, err := time.Parse(storage.TimeLayout, deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse export deleted_at: %w", err)
		}
		rec.DeletedAt = &t
	}
	rec.LastError = lastError.String
	return &rec, nil
}
