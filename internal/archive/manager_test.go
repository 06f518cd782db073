package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()

	root := t.TempDir()
	m, err := NewManager(root, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, root
}

func dropFile(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("<FaxStatus/>"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestArchiveDatePartition(t *testing.T) {
	t.Parallel()

	m, root := newTestManager(t)
	m.now = func() time.Time { return time.Date(2025, 11, 14, 10, 0, 0, 0, time.UTC) }

	src := dropFile(t, "job1.xml")
	dest, err := m.Archive(src)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	want := filepath.Join(root, "2025-11-14", "job1.xml")
	if dest != want {
		t.Fatalf("dest = %q, want %q", dest, want)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("archived file missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source should be gone, stat err = %v", err)
	}
}

func TestQuarantineErrorSubtree(t *testing.T) {
	t.Parallel()

	m, root := newTestManager(t)

	src := dropFile(t, "bad.xml")
	dest, err := m.Quarantine(src)
	if err != nil {
		t.Fatalf("Quarantine() error = %v", err)
	}

	want := filepath.Join(root, "errors", "bad.xml")
	if dest != want {
		t.Fatalf("dest = %q, want %q", dest, want)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("quarantined file missing: %v", err)
	}
}

func TestSweepDeletesOnlyExpiredFiles(t *testing.T) {
	t.Parallel()

	m, root := newTestManager(t)

	oldDir := filepath.Join(root, "2025-01-01")
	newDir := filepath.Join(root, "2025-11-14")
	for _, dir := range []string{oldDir, newDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	oldFile := filepath.Join(oldDir, "old.xml")
	newFile := filepath.Join(newDir, "new.xml")
	for _, path := range []string{oldFile, newFile} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	stale := time.Now().Add(-100 * 24 * time.Hour)
	if err := os.Chtimes(oldFile, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	deleted, err := m.Sweep(context.Background(), 90*24*time.Hour)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Fatalf("expired file should be deleted, stat err = %v", err)
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Fatalf("fresh file should survive: %v", err)
	}
}

func TestSweepEmptyTree(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)

	deleted, err := m.Sweep(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted = %d, want 0", deleted)
	}
}
