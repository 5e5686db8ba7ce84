package blobstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory ObjectStore used by tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func memKey(bucket, key string) string {
	return bucket + "/" + key
}

// Get returns a copy of the stored object.
func (m *MemoryStore) Get(ctx context.Context, bucket, key string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("get object %s: %w", key, ErrNotFound)
	}
	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)
	return &Object{Data: data, ContentType: obj.ContentType}, nil
}

// Put stores data at key, replacing any existing object.
func (m *MemoryStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[memKey(bucket, key)] = Object{Data: stored, ContentType: contentType}
	return nil
}

// Delete removes the object at key. Deleting a missing key is a no-op.
func (m *MemoryStore) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, memKey(bucket, key))
	return nil
}

// Copy duplicates the object at srcKey to dstKey.
func (m *MemoryStore) Copy(ctx context.Context, bucket, srcKey, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[memKey(bucket, srcKey)]
	if !ok {
		return fmt.Errorf("copy object %s: %w", srcKey, ErrNotFound)
	}
	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)
	m.objects[memKey(bucket, dstKey)] = Object{Data: data, ContentType: obj.ContentType}
	return nil
}

// Stat checks that an object exists at key.
func (m *MemoryStore) Stat(ctx context.Context, bucket, key string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[memKey(bucket, key)]; !ok {
		return fmt.Errorf("stat object %s: %w", key, ErrNotFound)
	}
	return nil
}

// PresignedPut returns a placeholder URL; memory-backed deployments accept
// inline uploads only.
func (m *MemoryStore) PresignedPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("memory://%s/%s?expires=%d", bucket, key, time.Now().Add(expiry).Unix()), nil
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
