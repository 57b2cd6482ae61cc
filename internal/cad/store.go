package cad

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattjoyce/planview/internal/storage"
)

// Store persists CAD files in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		now: time.Now,
	}
}

// Create inserts f and returns its reference. ID and CreatedTimestamp are
// assigned by the store.
func (s *Store) Create(ctx context.Context, f File) (Reference, error) {
	if err := validate(f); err != nil {
		return Reference{}, err
	}

	created := s.now().UTC()
	res, err := s.db.ExecContext(ctx, `
INSERT INTO cad_file(name, type, data, charset_name, created_at)
VALUES(?, ?, ?, ?, ?);
`, f.Name, normalizeType(f.Type), f.Data, nullString(f.CharsetName), created.Format(storage.TimeLayout))
	if err != nil {
		return Reference{}, fmt.Errorf("insert cad file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Reference{}, fmt.Errorf("read cad file id: %w", err)
	}

	return Reference{ID: id, Name: f.Name, CreatedTimestamp: created}, nil
}

// Get returns the full CAD file including its data.
func (s *Store) Get(ctx context.Context, id int64) (*File, error) {
	var (
		f       File
		charset sql.NullString
		created string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, type, data, charset_name, created_at
FROM cad_file
WHERE id = ?;
`, id).Scan(&f.ID, &f.Name, &f.Type, &f.Data, &charset, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read cad file: %w", err)
	}

	f.CharsetName = charset.String
	if f.CreatedTimestamp, err = time.Parse(storage.TimeLayout, created); err != nil {
		return nil, fmt.Errorf("parse cad file created_at: %w", err)
	}
	return &f, nil
}

// List returns references to every CAD file, oldest first.
func (s *Store) List(ctx context.Context) ([]Reference, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, created_at
FROM cad_file
ORDER BY id ASC;
`)
	if err != nil {
		return nil, fmt.Errorf("list cad files: %w", err)
	}
	defer rows.Close()

	refs := []Reference{}
	for rows.Next() {
		var (
			ref     Reference
			created string
		)
		if err := rows.Scan(&ref.ID, &ref.Name, &created); err != nil {
			return nil, fmt.Errorf("scan cad file: %w", err)
		}
		if ref.CreatedTimestamp, err = time.Parse(storage.TimeLayout, created); err != nil {
			return nil, fmt.Errorf("parse cad file created_at: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cad files: %w", err)
	}
	return refs, nil
}

// Update replaces name, type, data and charset of the CAD file with f.ID. The
// creation timestamp is never changed.
func (s *Store) Update(ctx context.Context, f File) (Reference, error) {
	if err := validate(f); err != nil {
		return Reference{}, err
	}

	var created string
	err := s.db.QueryRowContext(ctx, `
UPDATE cad_file
SET name = ?, type = ?, data = ?, charset_name = ?
WHERE id = ?
RETURNING created_at;
`, f.Name, normalizeType(f.Type), f.Data, nullString(f.CharsetName), f.ID).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return Reference{}, fmt.Errorf("%w: id=%d", ErrNotFound, f.ID)
	}
	if err != nil {
		return Reference{}, fmt.Errorf("update cad file: %w", err)
	}

	ts, err := time.Parse(storage.TimeLayout, created)
	if err != nil {
		return Reference{}, fmt.Errorf("parse cad file created_at: %w", err)
	}
	return Reference{ID: f.ID, Name: f.Name, CreatedTimestamp: ts}, nil
}

// Delete removes the CAD file and returns the reference it had.
func (s *Store) Delete(ctx context.Context, id int64) (Reference, error) {
	var (
		ref     Reference
		created string
	)
	err := s.db.QueryRowContext(ctx, `
DELETE FROM cad_file
WHERE id = ?
RETURNING id, name, created_at;
`, id).Scan(&ref.ID, &ref.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Reference{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return Reference{}, fmt.Errorf("delete cad file: %w", err)
	}

	if ref.CreatedTimestamp, err = time.Parse(storage.TimeLayout, created); err != nil {
		return Reference{}, fmt.Errorf("parse cad file created_at: %w", err)
	}
	return ref, nil
}

func validate(f File) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if utf8.RuneCountInString(f.Name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalid, MaxNameLength)
	}
	return nil
}

func normalizeType(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	if t == "" {
		return TypeDXF
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
