package roommapping

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

// Store persists room mapping collections in SQLite. Mappings and their
// vertices are owned by the collection and written in the same transaction.
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

// Create inserts c with all of its mappings.
func (s *Store) Create(ctx context.Context, c Collection) (Reference, error) {
	if err := validate(c); err != nil {
		return Reference{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Reference{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := s.now().UTC()
	res, err := tx.ExecContext(ctx, `
INSERT INTO room_mapping_collection(name, cad_file_id, created_at)
VALUES(?, ?, ?);
`, c.Name, c.CADFileID, created.Format(storage.TimeLayout))
	if err != nil {
		return Reference{}, fmt.Errorf("insert room mapping collection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Reference{}, fmt.Errorf("read room mapping collection id: %w", err)
	}

	if err := insertMappings(ctx, tx, id, c.Mappings); err != nil {
		return Reference{}, err
	}

	if err := tx.Commit(); err != nil {
		return Reference{}, fmt.Errorf("commit tx: %w", err)
	}
	return Reference{ID: id, Name: c.Name, CreatedTimestamp: created}, nil
}

// Get returns the collection with its mappings in insertion order.
func (s *Store) Get(ctx context.Context, id int64) (*Collection, error) {
	var (
		c       Collection
		created string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, cad_file_id, created_at
FROM room_mapping_collection
WHERE id = ?;
`, id).Scan(&c.ID, &c.Name, &c.CADFileID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read room mapping collection: %w", err)
	}
	if c.CreatedTimestamp, err = time.Parse(storage.TimeLayout, created); err != nil {
		return nil, fmt.Errorf("parse room mapping collection created_at: %w", err)
	}

	if c.Mappings, err = s.loadMappings(ctx, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns references to every collection.
func (s *Store) List(ctx context.Context) ([]Reference, error) {
	return s.queryRefs(ctx, `
SELECT id, name, created_at
FROM room_mapping_collection
ORDER BY id ASC;
`)
}

// ListByCADFile returns references to the collections made for a CAD file.
func (s *Store) ListByCADFile(ctx context.Context, cadFileID int64) ([]Reference, error) {
	return s.queryRefs(ctx, `
SELECT id, name, created_at
FROM room_mapping_collection
WHERE cad_file_id = ?
ORDER BY id ASC;
`, cadFileID)
}

// Update renames c.ID, moves it to c.CADFileID and replaces its mappings.
func (s *Store) Update(ctx context.Context, c Collection) (Reference, error) {
	if err := validate(c); err != nil {
		return Reference{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Reference{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var created string
	err = tx.QueryRowContext(ctx, `
UPDATE room_mapping_collection
SET name = ?, cad_file_id = ?
WHERE id = ?
RETURNING created_at;
`, c.Name, c.CADFileID, c.ID).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return Reference{}, fmt.Errorf("%w: id=%d", ErrNotFound, c.ID)
	}
	if err != nil {
		return Reference{}, fmt.Errorf("update room mapping collection: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM room_mapping WHERE collection_id = ?;", c.ID); err != nil {
		return Reference{}, fmt.Errorf("clear room mappings: %w", err)
	}
	if err := insertMappings(ctx, tx, c.ID, c.Mappings); err != nil {
		return Reference{}, err
	}

	if err := tx.Commit(); err != nil {
		return Reference{}, fmt.Errorf("commit tx: %w", err)
	}

	ts, err := time.Parse(storage.TimeLayout, created)
	if err != nil {
		return Reference{}, fmt.Errorf("parse room mapping collection created_at: %w", err)
	}
	return Reference{ID: c.ID, Name: c.Name, CreatedTimestamp: ts}, nil
}

// Delete removes the collection together with its mappings.
func (s *Store) Delete(ctx context.Context, id int64) (Reference, error) {
	var (
		ref     Reference
		created string
	)
	err := s.db.QueryRowContext(ctx, `
DELETE FROM room_mapping_collection
WHERE id = ?
RETURNING id, name, created_at;
`, id).Scan(&ref.ID, &ref.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Reference{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return Reference{}, fmt.Errorf("delete room mapping collection: %w", err)
	}
	if ref.CreatedTimestamp, err = time.Parse(storage.TimeLayout, created); err != nil {
		return Reference{}, fmt.Errorf("parse room mapping collection created_at: %w", err)
	}
	return ref, nil
}

func (s *Store) queryRefs(ctx context.Context, query string, args ...any) ([]Reference, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list room mapping collections: %w", err)
	}
	defer rows.Close()

	refs := []Reference{}
	for rows.Next() {
		var (
			ref     Reference
			created string
		)
		if err := rows.Scan(&ref.ID, &ref.Name, &created); err != nil {
			return nil, fmt.Errorf("scan room mapping collection: %w", err)
		}
		if ref.CreatedTimestamp, err = time.Parse(storage.TimeLayout, created); err != nil {
			return nil, fmt.Errorf("parse room mapping collection created_at: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room mapping collections: %w", err)
	}
	return refs, nil
}

func (s *Store) loadMappings(ctx context.Context, collectionID int64) ([]Mapping, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, room_name, category, description, mapping_x, mapping_y
FROM room_mapping
WHERE collection_id = ?
ORDER BY position ASC;
`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list room mappings: %w", err)
	}
	defer rows.Close()

	var mappings []Mapping
	index := map[int64]int{}
	for rows.Next() {
		var (
			m      Mapping
			desc   sql.NullString
			mx, my sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &m.RoomName, &m.Category, &desc, &mx, &my); err != nil {
			return nil, fmt.Errorf("scan room mapping: %w", err)
		}
		m.Description = desc.String
		if mx.Valid && my.Valid {
			m.MappingVertex = &Vertex{X: mx.Float64, Y: my.Float64}
		}
		index[m.ID] = len(mappings)
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room mappings: %w", err)
	}
	if len(mappings) == 0 {
		return nil, nil
	}

	vrows, err := s.db.QueryContext(ctx, `
SELECT v.mapping_id, v.x, v.y
FROM room_mapping_vertex v
JOIN room_mapping m ON m.id = v.mapping_id
WHERE m.collection_id = ?
ORDER BY v.mapping_id ASC, v.position ASC;
`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list room mapping vertices: %w", err)
	}
	defer vrows.Close()

	for vrows.Next() {
		var (
			mappingID int64
			v         Vertex
		)
		if err := vrows.Scan(&mappingID, &v.X, &v.Y); err != nil {
			return nil, fmt.Errorf("scan room mapping vertex: %w", err)
		}
		i, ok := index[mappingID]
		if !ok {
			continue
		}
		mappings[i].Vertices = append(mappings[i].Vertices, v)
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room mapping vertices: %w", err)
	}
	return mappings, nil
}

func insertMappings(ctx context.Context, tx *sql.Tx, collectionID int64, mappings []Mapping) error {
	for pos, m := range mappings {
		var mx, my sql.NullFloat64
		if m.MappingVertex != nil {
			mx = sql.NullFloat64{Float64: m.MappingVertex.X, Valid: true}
			my = sql.NullFloat64{Float64: m.MappingVertex.Y, Valid: true}
		}
		desc := sql.NullString{String: m.Description, Valid: m.Description != ""}

		res, err := tx.ExecContext(ctx, `
INSERT INTO room_mapping(collection_id, position, room_name, category, description, mapping_x, mapping_y)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, collectionID, pos, m.RoomName, m.Category, desc, mx, my)
		if err != nil {
			return fmt.Errorf("insert room mapping %q: %w", m.RoomName, err)
		}
		mappingID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read room mapping id: %w", err)
		}

		for vpos, v := range m.Vertices {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO room_mapping_vertex(mapping_id, position, x, y)
VALUES(?, ?, ?, ?);
`, mappingID, vpos, v.X, v.Y); err != nil {
				return fmt.Errorf("insert vertex for room mapping %q: %w", m.RoomName, err)
			}
		}
	}
	return nil
}

func validate(c Collection) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if c.CADFileID <= 0 {
		return fmt.Errorf("%w: cadFileID is required", ErrInvalid)
	}
	for i, m := range c.Mappings {
		if strings.TrimSpace(m.RoomName) == "" {
			return fmt.Errorf("%w: mapping %d has no room name", ErrInvalid, i)
		}
		if utf8.RuneCountInString(m.Description) > MaxDescriptionLength {
			return fmt.Errorf("%w: mapping %q description exceeds %d characters", ErrInvalid, m.RoomName, MaxDescriptionLength)
		}
	}
	return nil
}
