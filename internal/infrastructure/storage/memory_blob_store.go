package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
)

// Ensure MemoryBlobStore implements BlobStore
var _ bulkapp.BlobStore = (*MemoryBlobStore)(nil)

// MemoryBlobStore keeps objects in process memory.
// Use it for development and single-process deployments; contents do not survive restarts.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBlobStore creates an empty MemoryBlobStore
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

func objectPath(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores a copy of data at bucket/key
func (s *MemoryBlobStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if bucket == "" || key == "" {
		return ErrEmptyKey
	}
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectPath(bucket, key)] = cp
	return nil
}

// Get returns a copy of the object at bucket/key
func (s *MemoryBlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" || key == "" {
		return nil, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[objectPath(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Delete removes the object at bucket/key if present
func (s *MemoryBlobStore) Delete(ctx context.Context, bucket, key string) error {
	if bucket == "" || key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectPath(bucket, key))
	return nil
}

// Exists reports whether an object is stored at bucket/key
func (s *MemoryBlobStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if bucket == "" || key == "" {
		return false, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[objectPath(bucket, key)]
	return ok, nil
}

// Keys lists the stored keys of a bucket in sorted order
func (s *MemoryBlobStore) Keys(bucket string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := bucket + "/"
	keys := make([]string, 0)
	for path := range s.objects {
		if strings.HasPrefix(path, prefix) {
			keys = append(keys, strings.TrimPrefix(path, prefix))
		}
	}
	sort.Strings(keys)
	return keys
}
