// Package blobstore provides the storage side of blobio streams.
//
// A Store serves window-sized round trips (fetch, write, length) addressed
// by a Descriptor. Registry implements Store on top of a BlobStore, which
// manages named, mutable blobs:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process maps, mainly for tests
//   - LocalStore: local filesystem with optional fdatasync
//   - CachingStore: read-through block cache over any BlobStore
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Write Placement
//
// WriteWindow and Blob.WriteAt accept AppendOffset to write at the end of
// the blob. Writing past the end zero-fills the gap.
package blobstore
