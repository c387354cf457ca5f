package blobio

import (
	"bytes"
	"io"
	"strings"

	"github.com/hupe1980/blobio/internal/conv"
)

// EOFChar is returned by GetC at end of stream or on failure.
const EOFChar = -1

// ReadBlock reads count items of size bytes into p and returns the number
// of whole items read. count is clamped to the items that fit in p. Fewer
// items than requested means end of stream or an error; check EOF and Err.
// Bytes of a partially read final item are consumed and left in p.
func (s *Stream) ReadBlock(p []byte, size, count int) int {
	total, ok := blockBytes(len(p), size, count)
	if !ok || !s.beginRead() {
		return 0
	}
	return s.readInto(p[:total]) / size
}

// WriteBlock writes count items of size bytes from p and returns the
// number of whole items buffered. count is clamped to the items in p.
func (s *Stream) WriteBlock(p []byte, size, count int) int {
	total, ok := blockBytes(len(p), size, count)
	if !ok || !s.beginWrite() {
		return 0
	}
	return s.writeFrom(p[:total]) / size
}

// blockBytes returns the byte length of count items of size bytes,
// clamped to n.
func blockBytes(n, size, count int) (int, bool) {
	if size <= 0 || count <= 0 {
		return 0, false
	}
	count = min(count, n/size)
	total, err := conv.MulInt(size, count)
	if err != nil || total == 0 {
		return 0, false
	}
	return total, true
}

// GetC reads one byte. It returns EOFChar at end of stream, on error, or
// if the stream is not readable.
func (s *Stream) GetC() int {
	if !s.beginRead() {
		return EOFChar
	}
	win := s.available()
	if win == nil {
		return EOFChar
	}
	c := win[0]
	s.consume(1)
	return int(c)
}

// PutC writes one byte.
func (s *Stream) PutC(c byte) error {
	if s.closed() {
		return ErrClosed
	}
	if !s.beginWrite() {
		return ErrNotWritable
	}
	free := s.room()
	if free == nil {
		return s.err
	}
	free[0] = c
	s.produce(1)
	return nil
}

// Gets reads a line into p. It stops after len(p)-1 bytes, after a '\n'
// (which is kept), or at end of stream, and stores a NUL terminator after
// the bytes read. It returns the bytes read, p[:n]. Check EOF and Err when
// the result does not end with '\n'.
func (s *Stream) Gets(p []byte) []byte {
	if len(p) == 0 {
		return nil
	}
	n := 0
	if s.beginRead() {
		n = s.readLine(p[:len(p)-1])
	}
	p[n] = 0
	return p[:n]
}

func (s *Stream) readLine(p []byte) int {
	total := 0
	for total < len(p) {
		win := s.available()
		if win == nil {
			break
		}
		chunk := win[:min(len(win), len(p)-total)]
		if i := bytes.IndexByte(chunk, '\n'); i >= 0 {
			chunk = chunk[:i+1]
		}
		n := copy(p[total:], chunk)
		s.consume(n)
		total += n
		if p[total-1] == '\n' {
			break
		}
	}
	return total
}

// Puts writes str up to, but not including, its first NUL byte and
// returns the number of bytes written.
func (s *Stream) Puts(str string) int {
	if i := strings.IndexByte(str, 0); i >= 0 {
		str = str[:i]
	}
	if str == "" || !s.beginWrite() {
		return 0
	}
	return s.writeFrom([]byte(str))
}

// Tell returns the logical stream position.
func (s *Stream) Tell() int64 {
	return s.pos
}

// Seek flushes pending writes, discards read-ahead, clears EOF and moves
// the stream position. For io.SeekEnd the offset is ignored and the
// position becomes the current length of the blob.
//
// If the flush fails, the position is left unchanged and the flush error
// is returned.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.closed() {
		return 0, ErrClosed
	}

	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = s.pos + offset
	case io.SeekEnd:
	default:
		return s.pos, ErrInvalidWhence
	}
	if next < 0 {
		return s.pos, ErrNegativePosition
	}

	if s.writable() {
		if err := s.flush(); err != nil {
			return s.pos, err
		}
	}

	if whence == io.SeekEnd {
		end, err := s.store.Length(s.ctx, s.desc)
		if err != nil {
			ferr := fetchError("length", s.desc, 0, err)
			s.setErr(ferr)
			return s.pos, ferr
		}
		if end < 0 {
			return s.pos, ErrNegativePosition
		}
		next = end
	}

	s.pos = next
	s.length, s.cursor = 0, 0
	s.flags &^= flagEOF
	return s.pos, nil
}

// GetPos returns the stream position.
func (s *Stream) GetPos() int64 {
	return s.pos
}

// SetPos moves the stream to an absolute position.
func (s *Stream) SetPos(pos int64) error {
	_, err := s.Seek(pos, io.SeekStart)
	return err
}

// Rewind moves the stream to the start and clears EOF. Unlike ClearErr it
// leaves the error state untouched.
func (s *Stream) Rewind() {
	_, _ = s.Seek(0, io.SeekStart)
}

// EOF reports whether a read reached the end of the blob.
func (s *Stream) EOF() bool {
	return s.flags&flagEOF != 0
}

// Err returns the sticky error, or nil.
func (s *Stream) Err() error {
	if s.flags&flagErr == 0 {
		return nil
	}
	return s.err
}

// ClearErr clears the error state. EOF is not affected.
func (s *Stream) ClearErr() {
	s.flags &^= flagErr
	s.err = nil
}
