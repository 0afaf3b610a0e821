package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for archive storage operations
type ObjectStorage interface {
	// Upload stores a document under the given key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download retrieves a stored document by key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the URL for accessing a stored document
	GetURL(key string) string

	// Delete removes a stored document by key
	Delete(ctx context.Context, key string) error

	// Exists checks whether a document is present under the given key
	Exists(ctx context.Context, key string) (bool, error)
}
