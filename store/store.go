// Package store provides keyed blob storage for persisted bases and
// evaluation statistics. Implementations cover in-memory maps, the local
// file system and S3-compatible object storage (see the minio subpackage).
package store

import (
	"context"
	"os"
)

// ErrNotFound is returned when a named blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing named immutable blobs.
type Store interface {
	// Put writes a blob atomically under the given name, replacing any
	// previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads the blob with the given name.
	Get(ctx context.Context, name string) ([]byte, error)
}
