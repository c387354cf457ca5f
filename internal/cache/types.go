package cache

import (
	"context"
)

// CacheKey identifies one block of one blob.
type CacheKey struct {
	// Path identifies the blob (e.g. its name within a BlobStore).
	Path string
	// Block is the block index (byte offset / block size).
	Block uint64
}

// BlockCache is a byte-oriented cache for blob blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. Implementations may copy or retain; caller must treat b as immutable.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// Close releases any resources.
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}
