// Package persistence writes and reads durable copies of a store.
//
// Two shapes are supported: point-in-time snapshot files (a self-describing
// binary container with codec name, compression and checksum in the header)
// and a badger-backed record store for incremental durability.
package persistence

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies snapshot files (ASCII: "VECB").
	MagicNumber = 0x56454342
	// FormatVersion is the current snapshot format version (v1.0.0).
	FormatVersion = 0x00010000
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported format version")
	ErrUnknownCodec   = errors.New("unknown codec name in header")
)

// StorageError wraps a failure in a persistence operation with the operation
// name and the path involved.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
