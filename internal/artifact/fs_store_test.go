package artifact

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFSStoreWriteAndOpen(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "exports")
	store, err := NewFSStore(baseDir)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	path, err := store.Write(context.Background(), "response_1_01032024-120000_abc123.html", []byte("<html></html>"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	wantPath := filepath.Join(baseDir, "response_1_01032024-120000_abc123.html")
	if path != wantPath {
		t.Fatalf("Write() path = %q, want %q", path, wantPath)
	}

	f, info, err := store.Open(context.Background(), "response_1_01032024-120000_abc123.html")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "<html></html>" {
		t.Fatalf("Open() content = %q, want %q", string(got), "<html></html>")
	}
	if info.Size() != int64(len(got)) {
		t.Fatalf("Open() size = %d, want %d", info.Size(), len(got))
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("artifact directory has %d entries, want 1 (temp file leaked?)", len(entries))
	}
}

func TestFSStoreRejectsInvalidNames(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	for _, name := range []string{"", " ", ".", "..", "../escape.html", "a/b.html", `a\b.html`, " padded.html"} {
		if _, err := store.Path(name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("Path(%q) error = %v, want ErrInvalidName", name, err)
		}
		if _, err := store.Write(context.Background(), name, []byte("x")); err == nil {
			t.Fatalf("Write(%q) expected error", name)
		}
	}
}

func TestFSStoreDeleteArtifact(t *testing.T) {
	baseDir := t.TempDir()
	store, err := NewFSStore(baseDir)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	path, err := store.Write(context.Background(), "a.html", []byte("a"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := store.DeleteArtifact(context.Background(), path); err != nil {
		t.Fatalf("DeleteArtifact() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("artifact should be deleted, err = %v", err)
	}

	// A second delete reports the missing file instead of succeeding silently.
	err = store.DeleteArtifact(context.Background(), path)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("DeleteArtifact(missing) error = %v, want fs.ErrNotExist", err)
	}
}

func TestFSStoreDeleteArtifactRefusesOutsidePaths(t *testing.T) {
	root := t.TempDir()
	baseDir := filepath.Join(root, "exports")
	store, err := NewFSStore(baseDir)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	outside := filepath.Join(root, "keep.txt")
	if err := os.WriteFile(outside, []byte("keep"), 0o644); err != nil {
		t.Fatalf("WriteFile(outside) error = %v", err)
	}

	for _, path := range []string{outside, "relative.html", baseDir, filepath.Join(baseDir, "nested", "x.html")} {
		err := store.DeleteArtifact(context.Background(), path)
		if !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("DeleteArtifact(%q) error = %v, want ErrOutsideRoot", path, err)
		}
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("outside file should still exist, err = %v", err)
	}
}

func TestFSStoreSweep(t *testing.T) {
	baseDir := t.TempDir()
	store, err := NewFSStore(baseDir)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	ctx := context.Background()
	oldPath, err := store.Write(ctx, "old.html", []byte("old"))
	if err != nil {
		t.Fatalf("Write(old) error = %v", err)
	}
	trackedPath, err := store.Write(ctx, "tracked.html", []byte("tracked"))
	if err != nil {
		t.Fatalf("Write(tracked) error = %v", err)
	}
	newPath, err := store.Write(ctx, "new.html", []byte("new"))
	if err != nil {
		t.Fatalf("Write(new) error = %v", err)
	}
	if err := os.Mkdir(filepath.Join(baseDir, "subdir"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	oldTime := time.Now().Add(-2 * time.Hour)
	for _, p := range []string{oldPath, trackedPath} {
		if err := os.Chtimes(p, oldTime, oldTime); err != nil {
			t.Fatalf("Chtimes(%q) error = %v", p, err)
		}
	}

	report, err := store.Sweep(ctx, time.Hour, func(path string) bool { return path == trackedPath })
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if report.Deleted != 1 || report.Kept != 1 {
		t.Fatalf("Sweep() report = %+v, want 1 deleted 1 kept", report)
	}

	if len(report.Removed) != 1 || report.Removed[0] != oldPath {
		t.Fatalf("Sweep() removed = %v, want [%s]", report.Removed, oldPath)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("old artifact should be deleted, err = %v", err)
	}
	for _, p := range []string{trackedPath, newPath, filepath.Join(baseDir, "subdir")} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%q should still exist, err = %v", p, err)
		}
	}
}

func TestFSStoreSweepMissingDirectory(t *testing.T) {
	store, err := NewFSStore(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	report, err := store.Sweep(context.Background(), time.Hour, nil)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if report.Deleted != 0 {
		t.Fatalf("Sweep() deleted = %d, want 0", report.Deleted)
	}

	if _, err := store.Sweep(context.Background(), 0, nil); err == nil {
		t.Fatalf("Sweep(0) expected error")
	}
}
