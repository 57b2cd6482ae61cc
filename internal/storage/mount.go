package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrRemoteFilesystem is returned by OpenSQLite when state.path is on a
// network mount. SQLite's file locks are not reliable there.
var ErrRemoteFilesystem = errors.New("state.path is on a network filesystem")

var remoteMountTypes = map[string]bool{
	"afpfs":  true,
	"afs":    true,
	"cifs":   true,
	"nfs":    true,
	"nfs4":   true,
	"smb2":   true,
	"smbfs":  true,
	"webdav": true,
}

func isRemoteMount(kind string) bool {
	return remoteMountTypes[strings.ToLower(strings.TrimSpace(kind))]
}

// requireLocalDisk inspects the mount holding dbPath, or its nearest existing
// ancestor when the database has not been created yet.
func requireLocalDisk(dbPath string, mountType func(dir string) (string, error)) error {
	dir, err := nearestExisting(dbPath)
	if err != nil {
		return fmt.Errorf("resolve state.path %q: %w", dbPath, err)
	}
	kind, err := mountType(dir)
	if err != nil {
		return fmt.Errorf("inspect mount of %q: %w", dir, err)
	}
	if isRemoteMount(kind) {
		return fmt.Errorf("%w: %s is on a %s mount; point state.path at a local disk", ErrRemoteFilesystem, dbPath, kind)
	}
	return nil
}

func nearestExisting(path string) (string, error) {
	p, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		_, err := os.Stat(p)
		switch {
		case err == nil:
			return p, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", fmt.Errorf("no existing ancestor of %q", path)
		}
		p = parent
	}
}
