package blobio

import "io"

// Read implements io.Reader. It returns io.EOF once the end of the blob is
// reached and the sticky error after a failed fetch.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed() {
		return 0, ErrClosed
	}
	if !s.readable() {
		return 0, ErrNotReadable
	}
	if len(p) == 0 {
		return 0, nil
	}
	if !s.beginRead() {
		return 0, s.err
	}

	// Serve what is buffered; fetch at most one new window.
	if s.cursor >= s.length {
		if err := s.fetch(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.buf[s.cursor:s.length])
	s.consume(n)
	return n, nil
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed() {
		return 0, ErrClosed
	}
	if !s.beginWrite() {
		return 0, ErrNotWritable
	}
	n := s.writeFrom(p)
	if n < len(p) {
		return n, s.err
	}
	return n, nil
}

// WriteString implements io.StringWriter. Unlike Puts it writes NUL bytes.
func (s *Stream) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// ReadByte implements io.ByteReader.
func (s *Stream) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(s, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteByte implements io.ByteWriter.
func (s *Stream) WriteByte(c byte) error {
	return s.PutC(c)
}

var (
	_ io.ReadWriteSeeker = (*Stream)(nil)
	_ io.Closer          = (*Stream)(nil)
	_ io.ByteReader      = (*Stream)(nil)
	_ io.ByteWriter      = (*Stream)(nil)
	_ io.StringWriter    = (*Stream)(nil)
)
