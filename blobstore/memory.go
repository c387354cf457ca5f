package blobstore

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory BlobStore implementation for testing.
// It stores blobs in memory without any filesystem dependency.
// Thread-safe for concurrent reads and writes; all handles opened on the
// same name share the same data.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Open returns a handle to the named blob.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	return &memoryBlob{store: m, name: name}, nil
}

// Put replaces the content of a blob.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)
	m.blobs[name] = copied
	return nil
}

// Bytes returns a copy of the blob content, or nil if it does not exist.
func (m *MemoryStore) Bytes(name string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// List returns all blobs matching the prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// memoryBlob implements Blob on top of a MemoryStore entry.
type memoryBlob struct {
	store *MemoryStore
	name  string
}

func (b *memoryBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	return readAt(b.store.blobs[b.name], p, off)
}

func (b *memoryBlob) WriteAt(_ context.Context, p []byte, off int64) error {
	if err := ValidateOffset(off); err != nil {
		return err
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.blobs[b.name] = Splice(b.store.blobs[b.name], p, off)
	return nil
}

func (b *memoryBlob) Size(context.Context) (int64, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	return int64(len(b.store.blobs[b.name])), nil
}

func (b *memoryBlob) Truncate(_ context.Context, size int64) error {
	if size < 0 {
		return ErrInvalidOffset
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.blobs[b.name] = resize(b.store.blobs[b.name], size)
	return nil
}

func (b *memoryBlob) Close() error {
	return nil
}
