package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// Memory keeps objects in process memory. Its signed URLs use the
// memory:// scheme and are only meaningful to tests and local runs.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject), now: time.Now}
}

func (m *Memory) Put(_ context.Context, bucket, object string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("storage: memory put %s: %w", object, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[JoinPath(bucket, object)] = memoryObject{data: data, contentType: contentType}
	return nil
}

func (m *Memory) Get(_ context.Context, bucket, object string) (io.ReadCloser, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[JoinPath(bucket, object)]
	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

func (m *Memory) SignedURL(_ context.Context, bucket, object string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[JoinPath(bucket, object)]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	u := url.URL{
		Scheme:   "memory",
		Host:     bucket,
		Path:     "/" + object,
		RawQuery: url.Values{"expires": {fmt.Sprint(m.now().Add(ttl).Unix())}}.Encode(),
	}
	return u.String(), nil
}

// Len reports the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
