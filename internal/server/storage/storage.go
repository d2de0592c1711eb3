// Package storage holds image blobs referenced by notes.
package storage

import "context"

// ImageStore is a named-object blob store.
type ImageStore interface {
	// EnsureContainer creates the target container if it does not exist.
	// Safe to call repeatedly.
	EnsureContainer(ctx context.Context) error
	// Upload stores data under name and returns a durable URL for it.
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}
