// Package local keeps objects on the filesystem, for development and tests.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cv-builder/internal/shared/storage/object"
)

type Store struct {
	root string
}

// New roots the store at dir; directories are created on first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

func (s *Store) Put(ctx context.Context, ownerID, fileName, contentType string, data []byte) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}
	key, err := object.NewKey(ownerID, fileName)
	if err != nil {
		return object.Object{}, err
	}
	dst := s.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return object.Object{}, fmt.Errorf("create object dir: %w", err)
	}
	// Write then rename so readers never see a partial file.
	tmp := dst + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return object.Object{}, fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return object.Object{}, fmt.Errorf("commit object: %w", err)
	}
	return object.Object{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(s.pathFor(clean))
}

func (s *Store) pathFor(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

var _ object.Store = (*Store)(nil)
