package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// TimeLayout is the text encoding used for every timestamp column.
const TimeLayout = time.RFC3339Nano

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures required tables exist. Paths on network mounts fail with
// ErrRemoteFilesystem.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	return openSQLite(ctx, path, mountType)
}

func openSQLite(ctx context.Context, path string, mountType func(string) (string, error)) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := requireLocalDisk(path, mountType); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection, not just the first.
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Basic health check.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var fk int
	if err := db.QueryRowContext(pctx, "PRAGMA foreign_keys;").Scan(&fk); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("check foreign_keys: %w", err)
	}
	if fk != 1 {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: pragma not applied")
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cad_file (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  name          TEXT NOT NULL,
  type          TEXT NOT NULL,
  data          BLOB,
  charset_name  TEXT,
  created_at    TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS room_mapping_collection (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  name         TEXT NOT NULL,
  cad_file_id  INTEGER NOT NULL,
  created_at   TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS room_mapping (
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  collection_id  INTEGER NOT NULL REFERENCES room_mapping_collection(id) ON DELETE CASCADE,
  position       INTEGER NOT NULL,
  room_name      TEXT NOT NULL,
  category       INTEGER NOT NULL DEFAULT 0,
  description    TEXT,
  mapping_x      REAL,
  mapping_y      REAL
);`,
		`CREATE TABLE IF NOT EXISTS room_mapping_vertex (
  mapping_id  INTEGER NOT NULL REFERENCES room_mapping(id) ON DELETE CASCADE,
  position    INTEGER NOT NULL,
  x           REAL NOT NULL,
  y           REAL NOT NULL,
  PRIMARY KEY (mapping_id, position)
);`,
		`CREATE TABLE IF NOT EXISTS export_log (
  id           TEXT PRIMARY KEY,
  file_name    TEXT NOT NULL UNIQUE,
  cad_file_id  INTEGER NOT NULL,
  mapping_id   INTEGER,
  created_at   TEXT NOT NULL,
  expires_at   TEXT NOT NULL,
  deleted_at   TEXT,
  last_error   TEXT
);`,
		`CREATE INDEX IF NOT EXISTS room_mapping_collection_cad_file_idx ON room_mapping_collection(cad_file_id);`,
		`CREATE INDEX IF NOT EXISTS room_mapping_collection_position_idx ON room_mapping(collection_id, position);`,
		`CREATE INDEX IF NOT EXISTS export_log_created_at_idx ON export_log(created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
