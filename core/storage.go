package core

import (
	"context"
	"io"
)

// FileStore is any service that can persist uploaded files under a key.
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL returns a public URL for key, or "" when files are only served through the API.
	URL(key string) string
}

var ErrFileNotFound = NewNotFoundError("file")
