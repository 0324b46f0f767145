package media

import (
	"context"
	"io"
)

// Store persists uploaded objects under slash-separated keys.
type Store interface {
	// Put writes exactly size bytes from r under key, replacing any
	// existing object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
