package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
)

// ErrObjectNotFound is returned by Download when the key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// BlobStore keeps uploaded file contents. Paths returned by Upload are opaque
// handles; callers store them and hand them back unchanged.
type BlobStore interface {
	Upload(ctx context.Context, key string, contentType string, r io.Reader) (storedPath string, err error)
	Download(ctx context.Context, storedPath string) (io.ReadCloser, error)
	Exists(ctx context.Context, storedPath string) (bool, error)
	Delete(ctx context.Context, storedPath string) error
}

// ObjectKey builds a collision-free key under prefix, keeping the extension
// so downloads from the bucket console stay recognisable.
func ObjectKey(prefix, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	name := ulid.Make().String()
	if ext != "" {
		name += "." + ext
	}
	return path.Join(strings.Trim(prefix, "/"), name)
}

// DeleteAll removes every path, returning the first failure after trying all.
func DeleteAll(ctx context.Context, s BlobStore, paths []string) error {
	var first error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.Delete(ctx, p); err != nil && first == nil {
			first = fmt.Errorf("delete %s: %w", p, err)
		}
	}
	return first
}
