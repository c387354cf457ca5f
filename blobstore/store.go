package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Descriptor identifies an open blob inside a Store.
type Descriptor int

// InvalidDescriptor is the descriptor of a closed stream.
const InvalidDescriptor Descriptor = -1

// AppendOffset passed to WriteWindow places the window at the end of the blob.
const AppendOffset int64 = -1

// Store is the window-granular interface consumed by streams.
//
// Every call is one synchronous round trip. Implementations shared between
// streams must be safe for concurrent use.
type Store interface {
	// FetchWindow copies up to len(p) bytes starting at off into p.
	// It returns 0, nil when off is at or beyond the end of the blob.
	FetchWindow(ctx context.Context, d Descriptor, p []byte, off int64) (int, error)

	// WriteWindow writes p at off, or at the end of the blob when off is
	// AppendOffset. Writing beyond the end zero-fills the gap.
	WriteWindow(ctx context.Context, d Descriptor, p []byte, off int64) error

	// Length reports the current size of the blob in bytes.
	Length(ctx context.Context, d Descriptor) (int64, error)
}

// Truncater is implemented by stores that can shrink or grow a blob.
type Truncater interface {
	Truncate(ctx context.Context, d Descriptor, size int64) error
}

// BlobStore is an abstraction for named, mutable data blobs.
type BlobStore interface {
	// Open opens a blob for reading and writing. A blob that does not
	// exist yet reads as empty and is created by the first write.
	Open(ctx context.Context, name string) (Blob, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a handle to a single blob.
type Blob interface {
	io.Closer

	// ReadAt reads len(p) bytes at off. It returns io.EOF when fewer
	// bytes are available.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// WriteAt writes p at off, or appends when off is AppendOffset.
	WriteAt(ctx context.Context, p []byte, off int64) error

	// Size returns the size of the blob in bytes.
	Size(ctx context.Context) (int64, error)

	// Truncate changes the size of the blob.
	Truncate(ctx context.Context, size int64) error
}

// ErrInvalidOffset is returned for negative offsets other than AppendOffset.
var ErrInvalidOffset = errors.New("blobstore: invalid offset")

// ErrBadDescriptor is returned for descriptors that are not registered.
var ErrBadDescriptor = errors.New("blobstore: bad descriptor")
