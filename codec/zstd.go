package codec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Zstd is a Zstandard codec backed by github.com/klauspost/compress.
type Zstd struct {
	// Level is the encoder level. Zero selects zstd.SpeedDefault.
	Level zstd.EncoderLevel
}

func (Zstd) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return dec.IOReadCloser(), nil
}

func (z Zstd) NewWriter(w io.Writer) (io.WriteCloser, error) {
	level := z.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return enc, nil
}

func (Zstd) Name() string { return "zstd" }
