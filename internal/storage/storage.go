package storage

import (
	"context"
	"io"

	"github.com/evanshaw/shopd/internal"
)

// Storage defines the interface for file storage operations.
// Keys are deterministic relative paths such as "products/small/mug_small.jpg".
type Storage interface {
	// Put stores a file under key and returns its URL for retrieval.
	Put(ctx context.Context, key string, content io.Reader) (string, error)

	// Get retrieves a file by its key.
	// Returns an io.ReadCloser that must be closed by the caller.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file by its key.
	// Returns nil if the file doesn't exist (idempotent).
	Delete(ctx context.Context, key string) error

	// URL returns the public URL path for accessing a stored file.
	URL(key string) string
}

// NewStorage creates the Storage backend for the given media configuration.
func NewStorage(cfg internal.MediaConfig) (Storage, error) {
	return NewLocalStorage(cfg.Root, cfg.URL)
}
