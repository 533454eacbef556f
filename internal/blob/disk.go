package blob

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore is the local object store used when no GCS bucket is
// configured and in tests. Keys map to paths under the root directory.
type DiskStore struct {
	root   string
	logger *slog.Logger
}

func NewDiskStore(root string, logger *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &DiskStore{root: root, logger: logger}, nil
}

func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	// O_EXCL enforces the no-overwrite policy.
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ErrObjectExists
		}
		return fmt.Errorf("failed to create object: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return fmt.Errorf("failed to write object: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("object stored", "key", key, "size_bytes", size)
	}
	return nil
}

func (s *DiskStore) Count(ctx context.Context, prefix string) (int, error) {
	count := 0
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		if strings.HasPrefix(filepath.ToSlash(rel), prefix) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk blob root: %w", err)
	}
	return count, nil
}
