// Package storage holds the file stores the app can persist raw scan
// bytes to. Documents only keep an opaque key pointing at an object in
// one of these stores.
package storage

import (
	"context"
	"io"
)

type Store interface {
	// Put writes an object under key, overwriting any previous object
	// with the same key
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get returns a reader over the object's bytes. The caller must
	// close it
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a key that doesn't exist is
	// not an error, matching S3 semantics
	Delete(ctx context.Context, key string) error
}
