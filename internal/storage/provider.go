// Package storage defines the blob store abstraction that scraped datasets are
// written to. Implementations live in the local, gcs, and memory subpackages.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by GetObject when no object exists at path.
var ErrObjectNotFound = errors.New("object not found")

// BlobStore stores and retrieves named objects.
type BlobStore interface {
	// PutObject writes data under path, replacing any previous object, and
	// returns a URI for it.
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
	// GetObject returns the object at path or ErrObjectNotFound.
	GetObject(ctx context.Context, path string) ([]byte, error)
}
