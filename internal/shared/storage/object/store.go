// Package object stores uploaded binaries such as CV photos.
package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"cv-builder/internal/shared/util"
)

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// Object describes a stored blob.
type Object struct {
	Key         string `json:"storageKey"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Store is implemented by the local filesystem and S3 backends.
type Store interface {
	Put(ctx context.Context, ownerID, fileName, contentType string, data []byte) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewKey returns "<owner key>/<uuid>_<clean name>", so raw guest and
// account ids never appear in paths.
func NewKey(ownerID, fileName string) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", errors.New("owner id is required")
	}
	clean, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("object name: %w", err)
	}
	return path.Join(util.OwnerKey(ownerID), uuid.NewString()+"_"+clean), nil
}

// CleanKey normalizes a key read back from a client and rejects traversal.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
