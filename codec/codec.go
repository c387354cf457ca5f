// Package codec provides stream compression codecs for blob payloads.
//
// A codec wraps the io.Reader or io.Writer of a blob stream. The codec is
// not recorded in the blob, so readers must select the same codec the
// writer used.
package codec

import (
	"fmt"
	"io"
	"sort"
)

// Codec compresses and decompresses byte streams.
// Implementations must be safe for concurrent use.
type Codec interface {
	// NewReader returns a reader that decompresses r.
	NewReader(r io.Reader) (io.ReadCloser, error)
	// NewWriter returns a writer that compresses into w. Closing it ends
	// the compressed frame but does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)
	Name() string
}

// Default is the identity codec.
var Default Codec = None{}

var builtin = map[string]Codec{
	"none": None{},
	"zstd": Zstd{},
	"lz4":  LZ4{},
}

// ByName returns a built-in codec by its stable name. The empty name
// selects Default.
func ByName(name string) (Codec, bool) {
	if name == "" {
		return Default, true
	}
	c, ok := builtin[name]
	return c, ok
}

// Lookup is like ByName but returns an error naming the known codecs.
func Lookup(name string) (Codec, error) {
	c, ok := ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (known: %v)", name, Names())
	}
	return c, nil
}

// Names returns the names of the built-in codecs, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// None passes bytes through unchanged.
type None struct{}

func (None) NewReader(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(r), nil }

func (None) NewWriter(w io.Writer) (io.WriteCloser, error) { return nopWriteCloser{w}, nil }

func (None) Name() string { return "none" }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
