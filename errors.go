package blobio

import (
	"errors"
	"fmt"

	"github.com/hupe1980/blobio/blobstore"
)

var (
	// ErrInvalidMode is returned by Open and ParseMode for unknown modes.
	ErrInvalidMode = errors.New("blobio: invalid mode")

	// ErrOutOfMemory is returned by Open when the window buffer cannot be allocated.
	ErrOutOfMemory = errors.New("blobio: out of memory")

	// ErrInvalidBufferSize is returned by Open for an empty caller-supplied buffer.
	ErrInvalidBufferSize = errors.New("blobio: invalid buffer size")

	// ErrNotReadable is returned by the io adapters on streams opened without read access.
	ErrNotReadable = errors.New("blobio: stream not readable")

	// ErrNotWritable is returned by Flush and the io adapters on streams
	// opened without write access.
	ErrNotWritable = errors.New("blobio: stream not writable")

	// ErrStoreFetch marks a failed fetch round trip.
	ErrStoreFetch = errors.New("blobio: store fetch failed")

	// ErrStoreWrite marks a failed write round trip.
	ErrStoreWrite = errors.New("blobio: store write failed")

	// ErrClosed is returned for operations on a closed stream.
	ErrClosed = errors.New("blobio: stream closed")

	// ErrInvalidWhence is returned by Seek for an unknown whence.
	ErrInvalidWhence = errors.New("blobio: invalid whence")

	// ErrNegativePosition is returned when a seek would move before offset 0.
	ErrNegativePosition = errors.New("blobio: negative position")
)

var errNegativeCount = errors.New("store returned a negative count")

// StoreError describes a failed store round trip.
//
// It matches both the kind sentinel (ErrStoreFetch or ErrStoreWrite) and the
// store's own error with errors.Is and errors.As.
type StoreError struct {
	Op         string
	Descriptor blobstore.Descriptor
	Offset     int64
	Err        error

	kind error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%v: %s descriptor=%d offset=%d: %v", e.kind, e.Op, e.Descriptor, e.Offset, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{e.kind, e.Err} }

func fetchError(op string, d blobstore.Descriptor, off int64, err error) *StoreError {
	return &StoreError{Op: op, Descriptor: d, Offset: off, Err: err, kind: ErrStoreFetch}
}

func writeError(op string, d blobstore.Descriptor, off int64, err error) *StoreError {
	return &StoreError{Op: op, Descriptor: d, Offset: off, Err: err, kind: ErrStoreWrite}
}
