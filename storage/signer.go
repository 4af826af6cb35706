package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/logging"
)

// URLCache remembers signed URLs for a while. A miss is ("", false, nil).
type URLCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, url string, ttl time.Duration) error
}

// Signer works on full "<bucket>/<object>" paths on top of an ObjectStore.
type Signer struct {
	store ObjectStore
	cache URLCache
	log   logging.Logger
}

// NewSigner returns a Signer. cache may be nil.
func NewSigner(store ObjectStore, cache URLCache, log logging.Logger) *Signer {
	if log == nil {
		log = logging.Discard()
	}
	return &Signer{store: store, cache: cache, log: log}
}

// SignedURL returns a read URL for fullPath valid for ttl. With a cache, a
// URL is reused for at most half of its lifetime so every returned URL
// still has at least ttl/2 left. Cache failures only cost a fresh signature.
func (s *Signer) SignedURL(ctx context.Context, fullPath string, ttl time.Duration) (string, error) {
	bucket, object, err := SplitPath(fullPath)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s:%d", fullPath, int64(ttl/time.Second))
	if s.cache != nil {
		if u, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn(ctx, "signed url cache read failed", "path", fullPath, "error", err)
		} else if ok {
			return u, nil
		}
	}

	u, err := s.store.SignedURL(ctx, bucket, object, ttl)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", fullPath, err)
	}

	if s.cache != nil && ttl/2 > 0 {
		if err := s.cache.Set(ctx, key, u, ttl/2); err != nil {
			s.log.Warn(ctx, "signed url cache write failed", "path", fullPath, "error", err)
		}
	}
	return u, nil
}

// Read downloads the whole object at fullPath.
func (s *Signer) Read(ctx context.Context, fullPath string) ([]byte, string, error) {
	bucket, object, err := SplitPath(fullPath)
	if err != nil {
		return nil, "", err
	}
	rc, contentType, err := s.store.Get(ctx, bucket, object)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", fullPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", fullPath, err)
	}
	return data, contentType, nil
}
