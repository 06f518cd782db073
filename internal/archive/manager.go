// Package archive relocates processed completion documents out of the
// watched drop directory and enforces the retention policy over the archive
// tree.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const errorSubdir = "errors"

type Manager struct {
	root   string
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(root string, logger *zap.Logger) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("archive root is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive root %q: %w", root, err)
	}

	return &Manager{
		root:   root,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Archive moves a processed or duplicate document into the date-partitioned
// subtree, keyed by the processing date.
func (m *Manager) Archive(path string) (string, error) {
	partition := m.now().Format("2006-01-02")
	return m.moveInto(path, filepath.Join(m.root, partition))
}

// Quarantine moves a malformed document into the error subtree.
func (m *Manager) Quarantine(path string) (string, error) {
	return m.moveInto(path, filepath.Join(m.root, errorSubdir))
}

func (m *Manager) moveInto(path, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory %q: %w", dir, err)
	}

	dest := filepath.Join(dir, filepath.Base(path))
	if err := moveFile(path, dest); err != nil {
		return "", fmt.Errorf("failed to archive %q: %w", path, err)
	}

	m.logger.Debug("document archived",
		zap.String("source", path),
		zap.String("dest", dest),
	)

	return dest, nil
}

// Sweep walks the archive tree and deletes files whose modification time is
// older than the retention horizon. Returns the number of files deleted.
func (m *Manager) Sweep(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := m.now().Add(-retention)
	deleted := 0

	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			return err
		}
		deleted++
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("retention sweep failed: %w", err)
	}

	if deleted > 0 {
		m.logger.Info("retention sweep removed expired documents",
			zap.Int("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}

	return deleted, nil
}

// moveFile renames when possible and falls back to copy+remove, since the
// drop directory and the archive tree commonly live on different mounts.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return err
	}

	return os.Remove(src)
}
