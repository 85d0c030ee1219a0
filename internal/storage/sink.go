package storage

import (
	"context"
	"io"
)

// DocumentSink stores the bytes of accepted verification documents under opaque keys.
type DocumentSink interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}
