package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideRoot is returned when a path does not belong to the store.
var (
	// ErrOutsideRoot is returned when a path does not name a file directly
	// inside the artifact directory.
	ErrOutsideRoot = errors.New("path outside artifact directory")
	// ErrInvalidName is returned for names that are not a single clean path element.
	ErrInvalidName = errors.New("invalid artifact name")
)

// fsStore keeps export artifacts as flat files under one directory.
type fsStore struct {
	baseDir string
	now     func() time.Time
}

var _ Store = (*fsStore)(nil)

// NewFSStore creates a filesystem-backed artifact store rooted at baseDir.
func NewFSStore(baseDir string) (*fsStore, error) {
	trimmed := strings.TrimSpace(baseDir)
	if trimmed == "" {
		return nil, fmt.Errorf("artifact directory is empty")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact directory: %w", err)
	}

	return &fsStore{
		baseDir: abs,
		now:     time.Now,
	}, nil
}

// Dir returns the store root.
func (s *fsStore) Dir() string {
	return s.baseDir
}

// Write stores data atomically under name. An existing artifact with the same
// name is replaced.
func (s *fsStore) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, ".tmp-"+name+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact for %q: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write artifact %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close artifact %q: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("chmod artifact %q: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("publish artifact %q: %w", name, err)
	}

	return path, nil
}

// Path resolves name inside the store root.
func (s *fsStore) Path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, name), nil
}

// Open returns a read handle for an existing artifact.
func (s *fsStore) Open(ctx context.Context, name string) (*os.File, os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	path, err := s.Path(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open artifact %q: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat artifact %q: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("artifact %q is not a regular file", name)
	}

	return f, info, nil
}

// DeleteArtifact removes the artifact at path. A missing file is reported as
// an error wrapping fs.ErrNotExist.
func (s *fsStore) DeleteArtifact(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := s.nameOf(path)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil {
		return fmt.Errorf("delete artifact %q: %w", name, err)
	}
	return nil
}

// Sweep removes regular files older than olderThan based on modification time.
func (s *fsStore) Sweep(ctx context.Context, olderThan time.Duration, keep func(path string) bool) (SweepReport, error) {
	if err := ctx.Err(); err != nil {
		return SweepReport{}, err
	}
	if olderThan <= 0 {
		return SweepReport{}, fmt.Errorf("olderThan must be positive")
	}

	entries, err := os.ReadDir(s.baseDir)
	if os.IsNotExist(err) {
		return SweepReport{}, nil
	}
	if err != nil {
		return SweepReport{}, fmt.Errorf("read artifact directory: %w", err)
	}

	cutoff := s.now().Add(-olderThan)
	report := SweepReport{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("read artifact info %q: %w", entry.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.baseDir, entry.Name())
		if keep != nil && keep(path) {
			report.Kept++
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return report, fmt.Errorf("remove artifact %q: %w", entry.Name(), err)
		}
		report.Deleted++
		report.Removed = append(report.Removed, path)
	}

	return report, nil
}

func (s *fsStore) nameOf(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %q is not absolute", ErrOutsideRoot, path)
	}
	rel, err := filepath.Rel(s.baseDir, filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, path)
	}
	if err := validateName(rel); err != nil {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, path)
	}
	return rel, nil
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if trimmed != name {
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidName, name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.Contains(name, "/") || strings.Contains(name, `\`) {
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidName, name)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	}
	if filepath.Clean(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
