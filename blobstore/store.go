// Package blobstore abstracts where snapshot files live.
//
// A BlobStore moves whole snapshots between the local process and a storage
// backend. Snapshots are written once and replaced wholesale, so the
// interface deals in complete byte slices rather than streams.
//
// Built-in implementations:
//
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem with atomic writes
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and other S3-compatible services
//
// Implementations must be safe for concurrent use.
package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// BlobStore stores named immutable blobs.
type BlobStore interface {
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads a whole blob.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
