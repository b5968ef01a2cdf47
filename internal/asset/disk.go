package asset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

const clearConcurrency = 8

// DiskStore keeps assets as a flat directory of <hex>.<ext> files.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the asset directory if missing.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("asset dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the upload to a temp file and renames it into place, so a
// partially written asset is never visible under its final id.
func (d *DiskStore) Save(_ context.Context, originalFilename string, r io.Reader) (string, error) {
	id := NewKey(originalFilename)
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp asset: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close asset: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, id)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store asset: %w", err)
	}
	return id, nil
}

// Open returns a reader over the stored bytes and the inferred content type.
func (d *DiskStore) Open(_ context.Context, id string) (io.ReadCloser, string, error) {
	if err := ValidateID(id); err != nil {
		return nil, "", err
	}
	f, err := os.Open(filepath.Join(d.dir, id))
	if os.IsNotExist(err) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("open asset: %w", err)
	}
	return f, ContentTypeFor(id), nil
}

// Clear removes every file in the asset directory with bounded parallelism.
// A single failed deletion is logged and does not stop the rest.
func (d *DiskStore) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(clearConcurrency)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			if err := os.Remove(filepath.Join(d.dir, name)); err != nil {
				slog.Warn("failed to delete asset", "id", name, "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}
