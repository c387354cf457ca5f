package blobio

import (
	"context"
	"fmt"

	"github.com/hupe1980/blobio/blobstore"
)

// Stream is a buffered handle on one blob of a blobstore.Store.
//
// A Stream keeps a single window buffer that holds either read-ahead or
// pending writes, never both. It is not safe for concurrent use.
type Stream struct {
	ctx   context.Context
	store blobstore.Store
	desc  blobstore.Descriptor
	mode  Mode
	flags flags
	err   error // sticky error, set together with flagErr

	buf    []byte
	length int   // valid read-ahead or pending write bytes in buf
	cursor int   // next unread byte in buf
	pos    int64 // logical stream position

	alloc   Allocator
	logger  *Logger
	metrics MetricsCollector
}

// Open opens a stream on descriptor d of store.
//
// ModeWrite and ModeWriteUpdate truncate the blob when the store implements
// blobstore.Truncater. Append modes start at the current end of the blob.
// The context is used for every store round trip made by the stream.
func Open(ctx context.Context, store blobstore.Store, d blobstore.Descriptor, mode Mode, optFns ...Option) (*Stream, error) {
	caps, ok := resolveMode(mode)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o := applyOptions(optFns)
	s := &Stream{
		ctx:     ctx,
		store:   store,
		desc:    d,
		mode:    mode,
		flags:   caps,
		alloc:   o.allocator,
		logger:  o.logger.WithDescriptor(d).WithMode(mode),
		metrics: o.metricsCollector,
	}

	err := s.init(o)
	s.logger.LogOpen(ctx, len(s.buf), s.pos, err)
	s.metrics.RecordOpen(mode, err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stream) init(o options) error {
	if o.buffer != nil {
		if len(o.buffer) == 0 {
			return ErrInvalidBufferSize
		}
		s.buf = o.buffer
		s.flags |= flagExtBuf
	} else {
		buf, err := s.alloc.Alloc(o.bufferSize)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		if len(buf) == 0 {
			s.alloc.Free(buf)
			return fmt.Errorf("%w: allocator returned an empty buffer", ErrOutOfMemory)
		}
		s.buf = buf
	}

	if s.mode.truncates() {
		if t, ok := s.store.(blobstore.Truncater); ok {
			if err := t.Truncate(s.ctx, s.desc, 0); err != nil {
				s.release()
				return writeError("truncate", s.desc, 0, err)
			}
		}
	}

	if s.flags&flagAppend != 0 {
		end, err := s.store.Length(s.ctx, s.desc)
		if err != nil {
			s.release()
			return fetchError("length", s.desc, 0, err)
		}
		s.pos = end
	}
	return nil
}

// Close flushes pending writes and releases the window buffer if the
// stream owns it. The stream keeps its EOF and error state but rejects
// further I/O. Closing a closed stream is a no-op.
//
// The buffer is released even when the final flush fails; the flush error
// is returned and the unflushed bytes are lost.
func (s *Stream) Close() error {
	if s.closed() {
		return nil
	}

	var err error
	if s.flags&flagWrite != 0 {
		err = s.flush()
	}
	s.release()

	s.desc = blobstore.InvalidDescriptor
	s.flags &^= capabilityMask | flagPending
	s.length, s.cursor, s.pos = 0, 0, 0

	s.logger.LogClose(s.ctx, err)
	s.metrics.RecordClose(err)
	return err
}

func (s *Stream) release() {
	if s.buf != nil && s.flags&flagExtBuf == 0 {
		s.alloc.Free(s.buf)
	}
	s.buf = nil
}

func (s *Stream) closed() bool {
	return s.flags&(flagRead|flagWrite) == 0
}

// Descriptor returns the descriptor of the stream, or
// blobstore.InvalidDescriptor once closed.
func (s *Stream) Descriptor() blobstore.Descriptor {
	return s.desc
}

// Mode returns the mode the stream was opened with.
func (s *Stream) Mode() Mode {
	return s.mode
}

// BufferSize returns the window capacity, zero once closed.
func (s *Stream) BufferSize() int {
	return len(s.buf)
}

func (s *Stream) readable() bool   { return s.flags&flagRead != 0 }
func (s *Stream) writable() bool   { return s.flags&flagWrite != 0 }
func (s *Stream) appendable() bool { return s.flags&flagAppend != 0 }
func (s *Stream) pending() bool    { return s.flags&flagPending != 0 }

func (s *Stream) setErr(err error) {
	s.flags |= flagErr
	s.err = err
}
