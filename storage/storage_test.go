package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in             string
		bucket, object string
		wantErr        bool
	}{
		{in: "images/u1/a.jpg", bucket: "images", object: "u1/a.jpg"},
		{in: "/images/a.jpg", bucket: "images", object: "a.jpg"},
		{in: "images", wantErr: true},
		{in: "images/", wantErr: true},
		{in: "/a.jpg", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, object, err := SplitPath(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.object, object)
			assert.Equal(t, strings.TrimPrefix(tt.in, "/"), JoinPath(bucket, object))
		})
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.now = func() time.Time { return time.Unix(1000, 0) }

	require.NoError(t, m.Put(ctx, "images", "u1/a.png", strings.NewReader("png-bytes"), 9, "image/png"))
	assert.Equal(t, 1, m.Len())

	rc, ct, err := m.Get(ctx, "images", "u1/a.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", ct)

	u, err := m.SignedURL(ctx, "images", "u1/a.png", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "memory://images/u1/a.png?expires=1060", u)

	_, _, err = m.Get(ctx, "images", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.SignedURL(ctx, "images", "missing", time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)
}

type mapCache struct {
	entries map[string]string
	ttls    map[string]time.Duration
	err     error
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.err != nil {
		return "", false, c.err
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, url string, ttl time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.entries[key] = url
	c.ttls[key] = ttl
	return nil
}

type countingStore struct {
	*Memory
	signs int
}

func (s *countingStore) SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	s.signs++
	return s.Memory.SignedURL(ctx, bucket, object, ttl)
}

func TestSigner_CachesURLs(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: NewMemory()}
	require.NoError(t, store.Put(ctx, "images", "a.jpg", strings.NewReader("x"), 1, "image/jpeg"))
	cache := newMapCache()
	s := NewSigner(store, cache, nil)

	first, err := s.SignedURL(ctx, "images/a.jpg", 10*time.Minute)
	require.NoError(t, err)
	second, err := s.SignedURL(ctx, "images/a.jpg", 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.signs)
	assert.Equal(t, 5*time.Minute, cache.ttls["images/a.jpg:600"])

	// a different lifetime is a different entry
	_, err = s.SignedURL(ctx, "images/a.jpg", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, store.signs)
}

func TestSigner_CacheErrorsFallBackToSigning(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: NewMemory()}
	require.NoError(t, store.Put(ctx, "images", "a.jpg", strings.NewReader("x"), 1, "image/jpeg"))
	cache := newMapCache()
	cache.err = errors.New("redis down")

	u, err := NewSigner(store, cache, nil).SignedURL(ctx, "images/a.jpg", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, u)
	assert.Equal(t, 1, store.signs)
}

func TestSigner_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewSigner(NewMemory(), nil, nil)

	_, err := s.SignedURL(ctx, "no-slash", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = s.SignedURL(ctx, "images/missing.jpg", time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.Read(ctx, "images/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSigner_Read(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Put(ctx, "images", "u/a_thumb.jpg", strings.NewReader("thumb"), 5, "image/jpeg"))

	data, ct, err := NewSigner(store, nil, nil).Read(ctx, "images/u/a_thumb.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb"), data)
	assert.Equal(t, "image/jpeg", ct)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.StorageConfig{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)

	_, err = New(ctx, config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)

	_, err = New(ctx, config.StorageConfig{Driver: DriverMinio})
	assert.Error(t, err)
}

func TestNewMinio(t *testing.T) {
	m, err := NewMinio(config.StorageConfig{
		MinioEndpoint:  "localhost:9000",
		MinioAccessKey: "minio",
		MinioSecretKey: "minio123",
		MinioRegion:    "us-east-1",
	})
	require.NoError(t, err)

	// presigning is computed locally
	u, err := m.SignedURL(context.Background(), "images", "u1/a.jpg", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "http://localhost:9000/images/u1/a.jpg?")
	assert.Contains(t, u, "X-Amz-Expires=60")
}

func TestNewS3Presign(t *testing.T) {
	s, err := NewS3(context.Background(), config.StorageConfig{
		S3Region:    "us-east-1",
		S3Endpoint:  "http://localhost:9000",
		S3AccessKey: "key",
		S3SecretKey: "secret",
	})
	require.NoError(t, err)

	u, err := s.SignedURL(context.Background(), "images", "u1/a.jpg", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/images/u1/a.jpg?"), u)
	assert.Contains(t, u, "X-Amz-Expires=120")
}
