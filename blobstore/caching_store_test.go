package blobstore

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/hupe1980/blobio/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts ReadAt calls on the blobs of a MemoryStore.
type countingStore struct {
	*MemoryStore

	mu        sync.Mutex
	reads     int
	readBytes int
}

func (c *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := c.MemoryStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &countingBlob{Blob: b, store: c}, nil
}

type countingBlob struct {
	Blob
	store *countingStore
}

func (b *countingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	n, err := b.Blob.ReadAt(ctx, p, off)
	b.store.mu.Lock()
	b.store.reads++
	b.store.readBytes += n
	b.store.mu.Unlock()
	return n, err
}

func newCountingStore(t *testing.T, name string, data []byte) *countingStore {
	t.Helper()
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, inner.Put(context.Background(), name, data))
	return inner
}

func TestCachingStore_ReadAt(t *testing.T) {
	ctx := context.Background()
	data := make([]byte, 1024) // 1KB
	for i := range data {
		data[i] = byte(i % 255)
	}

	inner := newCountingStore(t, "test", data)
	c := cache.NewLRUBlockCache(1024*1024, nil) // 1MB cache
	store := NewCachingStore(inner, c, 256)     // 256 bytes block size

	blob, err := store.Open(ctx, "test")
	require.NoError(t, err)

	// 1. Read first block (bytes 0-100)
	buf := make([]byte, 100)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[:100], buf)
	assert.Equal(t, 1, inner.reads)
	assert.Equal(t, 256, inner.readBytes) // Read full block 0 (256 bytes)

	// 2. Read same range again -> Should hit cache
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.reads)

	// 3. Read spanning blocks 0 and 1; only block 1 is fetched.
	n, err = blob.ReadAt(ctx, buf, 200)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[200:300], buf)
	assert.Equal(t, 2, inner.reads)
	assert.Equal(t, 512, inner.readBytes)

	// 4. Read spanning blocks 1 to 3; blocks 2 and 3 come in one request.
	big := make([]byte, 700)
	n, err = blob.ReadAt(ctx, big, 300)
	require.NoError(t, err)
	assert.Equal(t, 700, n)
	assert.Equal(t, data[300:1000], big)
	assert.Equal(t, 3, inner.reads)
}

func TestCachingStore_ShortRead(t *testing.T) {
	ctx := context.Background()
	data := []byte("hello")
	store := NewCachingStore(newCountingStore(t, "small", data), cache.NewLRUBlockCache(1024, nil), 256)

	blob, err := store.Open(ctx, "small")
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := blob.ReadAt(ctx, buf, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 5, n)
	assert.Equal(t, data, buf[:n])

	_, err = blob.ReadAt(ctx, buf, 5)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCachingStore_WriteInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStore(t, "blob", []byte("0123456789"))
	store := NewCachingStore(inner, cache.NewLRUBlockCache(1024, nil), 4)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)

	read := func(off int64, n int) string {
		buf := make([]byte, n)
		got, err := blob.ReadAt(ctx, buf, off)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
		}
		return string(buf[:got])
	}

	assert.Equal(t, "0123456789", read(0, 10))

	// Overwrite inside block 1.
	require.NoError(t, blob.WriteAt(ctx, []byte("XY"), 4))
	assert.Equal(t, "0123XY6789", read(0, 10))

	// Appending extends the short tail block.
	require.NoError(t, blob.WriteAt(ctx, []byte("ab"), AppendOffset))
	assert.Equal(t, "0123XY6789ab", read(0, 12))

	// Truncation drops blocks at and after the new end.
	require.NoError(t, blob.Truncate(ctx, 6))
	require.NoError(t, blob.WriteAt(ctx, []byte("Q"), 9))
	assert.Equal(t, "0123XY\x00\x00\x00Q", read(0, 10))

	require.NoError(t, store.Delete(ctx, "blob"))
	assert.Empty(t, read(0, 4))
}

// hookStore runs one-shot callbacks around blob I/O to interleave
// operations of two handles deterministically.
type hookStore struct {
	*MemoryStore

	mu          sync.Mutex
	beforeWrite func()
	afterRead   func()
}

func (h *hookStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := h.MemoryStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &hookBlob{Blob: b, store: h}, nil
}

func (h *hookStore) take(fn *func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	f := *fn
	*fn = nil
	return f
}

type hookBlob struct {
	Blob
	store *hookStore
}

func (b *hookBlob) WriteAt(ctx context.Context, p []byte, off int64) error {
	if f := b.store.take(&b.store.beforeWrite); f != nil {
		f()
	}
	return b.Blob.WriteAt(ctx, p, off)
}

func (b *hookBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	n, err := b.Blob.ReadAt(ctx, p, off)
	if f := b.store.take(&b.store.afterRead); f != nil {
		f()
	}
	return n, err
}

func TestCachingStore_ConcurrentWriteNotStale(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*hookStore, Blob, Blob) {
		inner := &hookStore{MemoryStore: NewMemoryStore()}
		require.NoError(t, inner.Put(ctx, "x", []byte("old!")))
		cs := NewCachingStore(inner, cache.NewLRUBlockCache(1<<20, nil), 4)
		reader, err := cs.Open(ctx, "x")
		require.NoError(t, err)
		writer, err := cs.Open(ctx, "x")
		require.NoError(t, err)
		return inner, reader, writer
	}

	t.Run("ReadDuringWrite", func(t *testing.T) {
		inner, reader, writer := setup(t)
		inner.beforeWrite = func() {
			_, err := reader.ReadAt(ctx, make([]byte, 4), 0)
			assert.NoError(t, err)
		}

		require.NoError(t, writer.WriteAt(ctx, []byte("new!"), 0))

		buf := make([]byte, 4)
		_, err := reader.ReadAt(ctx, buf, 0)
		require.NoError(t, err)
		assert.Equal(t, "new!", string(buf))
	})

	t.Run("WriteBetweenFetchAndFill", func(t *testing.T) {
		inner, reader, writer := setup(t)
		inner.afterRead = func() {
			assert.NoError(t, writer.WriteAt(ctx, []byte("new!"), 0))
		}

		// The block fetched before the write must not be cached.
		buf := make([]byte, 4)
		_, err := reader.ReadAt(ctx, buf, 0)
		require.NoError(t, err)

		_, err = reader.ReadAt(ctx, buf, 0)
		require.NoError(t, err)
		assert.Equal(t, "new!", string(buf))
	})
}
