// Package store provides the object-store abstraction which backs raw
// chunks, stage manifests, and the extractor checkpoint.
package store

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get when the named object is absent.
var ErrNotExist = errors.New("object does not exist")

// Store is a durable blob store keyed by object path.
// Writes replace any prior object under the same path.
type Store interface {
	// Get reads the full contents of the object at |path|,
	// or returns ErrNotExist.
	Get(ctx context.Context, path string) ([]byte, error)
	// Put writes |data| as the complete contents of the object at |path|.
	Put(ctx context.Context, path string, data []byte) error
}
