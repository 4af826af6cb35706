// Package storage stores image objects and issues signed read URLs for
// them. Paths recorded in the database have the form "<bucket>/<object>".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/config"
)

var (
	ErrInvalidPath = errors.New("storage: invalid object path")
	ErrNotFound    = errors.New("storage: object not found")
)

const (
	DriverGCS    = "gcs"
	DriverS3     = "s3"
	DriverMinio  = "minio"
	DriverMemory = "memory"
)

// ObjectStore is a bucket/object blob store able to sign read URLs.
type ObjectStore interface {
	Put(ctx context.Context, bucket, object string, r io.Reader, size int64, contentType string) error
	// Get returns the object body and its content type. Callers close the body.
	Get(ctx context.Context, bucket, object string) (io.ReadCloser, string, error)
	SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error)
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case DriverGCS:
		return NewGCS(ctx, cfg)
	case DriverS3:
		return NewS3(ctx, cfg)
	case DriverMinio:
		return NewMinio(cfg)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// SplitPath splits "<bucket>/<object>". Both parts must be non-empty.
func SplitPath(fullPath string) (bucket, object string, err error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(fullPath, "/"), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, fullPath)
	}
	return bucket, object, nil
}

func JoinPath(bucket, object string) string {
	return bucket + "/" + object
}
