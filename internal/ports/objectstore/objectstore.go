package objectstore

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("object not found")

type Object struct {
	Path        string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}

type UploadOptions struct {
	ContentType  string
	CacheControl string
}

// ObjectStore es el bucket remoto donde se guardan las imágenes.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, opts UploadOptions) error
	Delete(ctx context.Context, paths ...string) error
	// List devuelve los objetos directamente bajo prefix (sin recursión).
	List(ctx context.Context, prefix string) ([]Object, error)
	PublicURL(path string) string
}
