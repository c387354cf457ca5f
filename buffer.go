package blobio

import (
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/blobio/blobstore"
)

// fetch refills the window from the store at pos. It returns io.EOF at
// end of stream and the store failure otherwise, setting the matching
// sticky flag. fetch never moves pos.
func (s *Stream) fetch() error {
	start := time.Now()
	n, err := s.store.FetchWindow(s.ctx, s.desc, s.buf, s.pos)
	if err == nil && n < 0 {
		err = fmt.Errorf("%w: %d", errNegativeCount, n)
	}
	s.metrics.RecordFetch(n, time.Since(start), err)
	s.logger.LogFetch(s.ctx, s.pos, n, err)

	s.length, s.cursor = 0, 0
	if err != nil {
		ferr := fetchError("fetch", s.desc, s.pos, err)
		s.setErr(ferr)
		return ferr
	}
	if n == 0 {
		s.flags |= flagEOF
		return io.EOF
	}
	s.length = min(n, len(s.buf))
	return nil
}

// Flush writes pending bytes to the store.
//
// Flush fails with ErrNotWritable on streams opened without write access
// and is a no-op when nothing is pending. A failed flush sets the sticky
// error and keeps the pending bytes, so a later Flush retries them.
func (s *Stream) Flush() error {
	if s.closed() {
		return ErrClosed
	}
	if !s.writable() {
		return ErrNotWritable
	}
	return s.flush()
}

// flushTarget returns the store offset of the first pending byte.
func (s *Stream) flushTarget() int64 {
	if s.appendable() {
		return blobstore.AppendOffset
	}
	return s.pos - int64(s.length)
}

func (s *Stream) flush() error {
	if !s.pending() {
		return nil
	}
	if s.length == 0 {
		s.flags &^= flagPending
		return nil
	}

	off := s.flushTarget()
	start := time.Now()
	err := s.store.WriteWindow(s.ctx, s.desc, s.buf[:s.length], off)
	s.metrics.RecordFlush(s.length, time.Since(start), err)
	s.logger.LogFlush(s.ctx, off, s.length, err)

	if err != nil {
		werr := writeError("flush", s.desc, off, err)
		s.setErr(werr)
		return werr
	}
	s.length, s.cursor = 0, 0
	s.flags &^= flagPending
	return nil
}

// beginRead prepares the window for consuming read-ahead. Pending writes
// are flushed first. It reports false if the stream cannot read.
func (s *Stream) beginRead() bool {
	if !s.readable() {
		return false
	}
	if s.pending() {
		return s.flush() == nil
	}
	return true
}

// beginWrite prepares the window for buffering writes. Unconsumed
// read-ahead is discarded; its bytes are already accounted for in pos.
func (s *Stream) beginWrite() bool {
	if !s.writable() {
		return false
	}
	if !s.pending() {
		s.length, s.cursor = 0, 0
	}
	return true
}

// available returns the unread bytes of the window, fetching a new window
// when the current one is exhausted. It returns nil at end of stream or on
// failure.
func (s *Stream) available() []byte {
	if s.cursor >= s.length && s.fetch() != nil {
		return nil
	}
	return s.buf[s.cursor:s.length]
}

// consume advances past n bytes returned by available.
func (s *Stream) consume(n int) {
	s.cursor += n
	s.pos += int64(n)
}

// room returns the free tail of the window, flushing a full window first.
// It returns nil if the flush fails.
func (s *Stream) room() []byte {
	if s.length >= len(s.buf) && s.flush() != nil {
		return nil
	}
	return s.buf[s.length:]
}

// produce records n bytes written into the slice returned by room.
func (s *Stream) produce(n int) {
	s.length += n
	s.pos += int64(n)
	s.flags |= flagPending
}

// readInto copies up to len(p) bytes into p and returns the count.
func (s *Stream) readInto(p []byte) int {
	total := 0
	for total < len(p) {
		win := s.available()
		if win == nil {
			break
		}
		n := copy(p[total:], win)
		s.consume(n)
		total += n
	}
	return total
}

// writeFrom buffers up to len(p) bytes from p and returns the count.
func (s *Stream) writeFrom(p []byte) int {
	total := 0
	for total < len(p) {
		free := s.room()
		if free == nil {
			break
		}
		n := copy(free, p[total:])
		s.produce(n)
		total += n
	}
	return total
}
