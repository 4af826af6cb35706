package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/aljonleynes11/media-coding-exam-backend/config"
)

const gcsUploadTimeout = 50 * time.Second

// GCS stores objects in Google Cloud Storage and signs V4 URLs.
type GCS struct {
	cl *gcs.Client
}

func NewGCS(ctx context.Context, cfg config.StorageConfig) (*GCS, error) {
	if cfg.GCSCredentialsFile != "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.GCSCredentialsFile)
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	return &GCS{cl: client}, nil
}

func (g *GCS) Put(ctx context.Context, bucket, object string, r io.Reader, size int64, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, gcsUploadTimeout)
	defer cancel()

	wc := g.cl.Bucket(bucket).Object(object).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return fmt.Errorf("storage: gcs write %s: %w", object, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("storage: gcs close %s: %w", object, err)
	}
	return nil
}

func (g *GCS) Get(ctx context.Context, bucket, object string) (io.ReadCloser, string, error) {
	rc, err := g.cl.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("storage: gcs read %s: %w", object, err)
	}
	return rc, rc.Attrs.ContentType, nil
}

func (g *GCS) SignedURL(_ context.Context, bucket, object string, ttl time.Duration) (string, error) {
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	}
	u, err := g.cl.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("storage: gcs sign %s: %w", object, err)
	}
	return u, nil
}

func (g *GCS) Close() error {
	return g.cl.Close()
}
