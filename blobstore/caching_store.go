package blobstore

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/blobio/internal/cache"
	"github.com/hupe1980/blobio/internal/conv"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheBlockSize is the block size used when none is given.
const DefaultCacheBlockSize = 4096

// CachingStore wraps a BlobStore and adds block-level read caching.
//
// Writes and truncations made through the store invalidate the affected
// blocks. Changes made to the inner store directly are not observed.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64

	mu     sync.Mutex
	blocks map[string]*blockSet
	gens   map[string]uint64 // bumped by every invalidation of a blob
}

// blockSet tracks which blocks of one blob may be cached.
type blockSet struct {
	cached *roaring.Bitmap
	tail   int64 // index of a cached short block, -1 if none
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to DefaultCacheBlockSize if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultCacheBlockSize
	}
	return &CachingStore{
		inner:     inner,
		cache:     c,
		blockSize: blockSize,
		blocks:    make(map[string]*blockSet),
		gens:      make(map[string]uint64),
	}
}

// Open returns a caching handle to the named blob.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{inner: b, store: s, name: name}, nil
}

// Delete drops the cached blocks of the blob and deletes it.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidateFrom(name, 0)
	return s.inner.Delete(ctx, name)
}

// List delegates to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) key(name string, blk int64) cache.CacheKey {
	return cache.CacheKey{Path: name, Block: uint64(blk)}
}

func (s *CachingStore) generation(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[name]
}

// remember caches data as block blk unless the blob was invalidated after
// gen was taken, which means data may predate a write.
func (s *CachingStore) remember(ctx context.Context, name string, blk uint32, data []byte, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[name] != gen {
		return
	}
	set, ok := s.blocks[name]
	if !ok {
		set = &blockSet{cached: roaring.New(), tail: -1}
		s.blocks[name] = set
	}
	set.cached.Add(blk)
	if int64(len(data)) < s.blockSize {
		set.tail = int64(blk)
	}
	s.cache.Set(ctx, s.key(name, int64(blk)), data)
}

// invalidateRange drops the blocks overlapping [first, last] and the short
// tail block, which any write may extend.
func (s *CachingStore) invalidateRange(name string, first, last int64) {
	s.mu.Lock()
	s.gens[name]++
	set, ok := s.blocks[name]
	if !ok {
		s.mu.Unlock()
		return
	}
	drop := roaring.New()
	if first <= last && first <= math.MaxUint32 {
		drop.AddRange(uint64(first), uint64(min(last, math.MaxUint32))+1)
	}
	if set.tail >= 0 {
		drop.Add(uint32(set.tail))
		set.tail = -1
	}
	drop.And(set.cached)
	set.cached.AndNot(drop)
	if set.cached.IsEmpty() {
		delete(s.blocks, name)
	}
	s.mu.Unlock()

	if drop.IsEmpty() {
		return
	}
	s.cache.Invalidate(func(key cache.CacheKey) bool {
		return key.Path == name && key.Block <= math.MaxUint32 && drop.Contains(uint32(key.Block))
	})
}

func (s *CachingStore) invalidateTail(name string) {
	s.invalidateRange(name, 0, -1)
}

func (s *CachingStore) invalidateFrom(name string, first int64) {
	s.invalidateRange(name, first, math.MaxUint32)
}

// CachingBlob wraps a Blob and uses the block cache for reads.
type CachingBlob struct {
	inner Blob
	store *CachingStore
	name  string
}

func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

func (b *CachingBlob) Size(ctx context.Context) (int64, error) {
	return b.inner.Size(ctx)
}

// WriteAt invalidates the written blocks before and after the inner write,
// so blocks read concurrently with the write are never kept.
func (b *CachingBlob) WriteAt(ctx context.Context, p []byte, off int64) error {
	b.invalidateWrite(p, off)
	err := b.inner.WriteAt(ctx, p, off)
	b.invalidateWrite(p, off)
	return err
}

func (b *CachingBlob) invalidateWrite(p []byte, off int64) {
	bs := b.store.blockSize
	if off == AppendOffset {
		b.store.invalidateTail(b.name)
	} else if len(p) > 0 {
		b.store.invalidateRange(b.name, off/bs, (off+int64(len(p))-1)/bs)
	}
}

func (b *CachingBlob) Truncate(ctx context.Context, size int64) error {
	first := size / b.store.blockSize
	b.store.invalidateFrom(b.name, first)
	err := b.inner.Truncate(ctx, size)
	b.store.invalidateFrom(b.name, first)
	return err
}

func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	size, err := b.inner.Size(ctx)
	if err != nil {
		return 0, err
	}
	if off >= size {
		return 0, io.EOF
	}

	bs := b.store.blockSize
	end := min(off+int64(len(p)), size)
	startBlock := off / bs
	endBlock := (end - 1) / bs

	if err := b.fillCache(ctx, startBlock, endBlock, size); err != nil {
		return 0, err
	}

	total := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		data, err := b.block(ctx, blk)
		if err != nil {
			return total, err
		}
		blkStart := blk * bs
		from := max(off, blkStart) - blkStart
		if from >= int64(len(data)) {
			break
		}
		total += copy(p[max(off, blkStart)-off:], data[from:])
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// fillCache loads missing blocks in [startBlock, endBlock], fetching each
// contiguous run of missing blocks with a single request.
func (b *CachingBlob) fillCache(ctx context.Context, startBlock, endBlock, size int64) error {
	type run struct{ start, count int64 }
	var missing []run

	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.store.cache.Get(ctx, b.store.key(b.name, blk)); ok {
			continue
		}
		if n := len(missing); n > 0 && missing[n-1].start+missing[n-1].count == blk {
			missing[n-1].count++
		} else {
			missing = append(missing, run{start: blk, count: 1})
		}
	}

	bs := b.store.blockSize
	gen := b.store.generation(b.name)
	g, gctx := errgroup.WithContext(ctx)
	// Limit concurrency to avoid FD exhaustion or rate limits
	g.SetLimit(16)

	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * bs
			byteSize := min(r.count*bs, size-byteStart)
			if byteSize <= 0 {
				return nil
			}

			buf := make([]byte, byteSize)
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]

			for i := int64(0); i < r.count; i++ {
				lo := i * bs
				if lo >= int64(len(buf)) {
					break
				}
				hi := min(lo+bs, int64(len(buf)))
				// Copy so the run buffer is not pinned by the cache.
				blockCopy := make([]byte, hi-lo)
				copy(blockCopy, buf[lo:hi])
				b.put(gctx, r.start+i, blockCopy, gen)
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *CachingBlob) put(ctx context.Context, blk int64, data []byte, gen uint64) {
	idx, err := conv.Int64ToUint32(blk)
	if err != nil {
		return
	}
	b.store.remember(ctx, b.name, idx, data, gen)
}

// block returns one block from the cache, reading it through on a miss.
func (b *CachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.store.cache.Get(ctx, b.store.key(b.name, blk)); ok {
		return data, nil
	}

	gen := b.store.generation(b.name)
	buf := make([]byte, b.store.blockSize)
	n, err := b.inner.ReadAt(ctx, buf, blk*b.store.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n > 0 {
		b.put(ctx, blk, buf[:n], gen)
	}
	return buf[:n], nil
}
