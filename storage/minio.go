package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio stores objects on a MinIO server.
type Minio struct {
	client *minio.Client
}

func NewMinio(cfg config.StorageConfig) (*Minio, error) {
	if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
		return nil, errors.New("storage: MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: init minio client: %w", err)
	}
	return &Minio{client: client}, nil
}

func (m *Minio) Put(ctx context.Context, bucket, object string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage: minio put %s: %w", object, err)
	}
	return nil
}

func (m *Minio) Get(ctx context.Context, bucket, object string) (io.ReadCloser, string, error) {
	obj, err := m.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("storage: minio get %s: %w", object, err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("storage: minio stat %s: %w", object, err)
	}
	return obj, info.ContentType, nil
}

func (m *Minio) SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, bucket, object, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("storage: minio presign %s: %w", object, err)
	}
	return u.String(), nil
}
