// Package cache provides LRU caching for blob blocks.
//
// The LRUBlockCache stores recently fetched, fixed-size blocks of blob
// content keyed by blob name and block index. It is used by
// blobstore.CachingStore to serve repeated window fetches without a store
// round trip.
//
// Key features:
//   - Byte-capacity LRU eviction
//   - Integrated with resource.Controller for global memory limits
//   - Predicate-based invalidation for write-through coherence
package cache
