package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
// Objects are grouped by category (document type, "cv", ...), which becomes
// the leading path segment of the storage key.
//
// URL derives a retrievable address for a stored object: a server-relative
// download path for local storage, a time-limited presigned URL for S3.
type ObjectStore interface {
	Save(ctx context.Context, category string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	URL(ctx context.Context, storageKey string) (string, error)
	Delete(ctx context.Context, storageKey string) error
}
