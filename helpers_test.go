package blobio

import (
	"context"
	"errors"

	"github.com/hupe1980/blobio/blobstore"
)

var errBoom = errors.New("boom")

type writeCall struct {
	data string
	off  int64
}

// fakeStore is a single-blob blobstore.Store that records round trips.
type fakeStore struct {
	data []byte

	fetches   int
	writes    []writeCall
	lengths   int
	truncates int

	fetchErr   error
	fetchCount int // returned with a nil error when negative
	writeErr   error
	lengthErr  error
}

func (f *fakeStore) FetchWindow(_ context.Context, _ blobstore.Descriptor, p []byte, off int64) (int, error) {
	f.fetches++
	if f.fetchErr != nil {
		return 0, f.fetchErr
	}
	if f.fetchCount < 0 {
		return f.fetchCount, nil
	}
	if off >= int64(len(f.data)) {
		return 0, nil
	}
	return copy(p, f.data[off:]), nil
}

func (f *fakeStore) WriteWindow(_ context.Context, _ blobstore.Descriptor, p []byte, off int64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, writeCall{data: string(p), off: off})
	f.data = blobstore.Splice(f.data, p, off)
	return nil
}

func (f *fakeStore) Length(context.Context, blobstore.Descriptor) (int64, error) {
	f.lengths++
	if f.lengthErr != nil {
		return 0, f.lengthErr
	}
	return int64(len(f.data)), nil
}

// truncatingStore adds blobstore.Truncater to fakeStore.
type truncatingStore struct {
	*fakeStore
}

func (t truncatingStore) Truncate(_ context.Context, _ blobstore.Descriptor, size int64) error {
	t.truncates++
	t.data = t.data[:min(size, int64(len(t.data)))]
	return nil
}

// countingAllocator tracks outstanding buffers.
type countingAllocator struct {
	allocs int
	frees  int
	err    error
}

func (a *countingAllocator) Alloc(n int) ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.allocs++
	return make([]byte, n), nil
}

func (a *countingAllocator) Free([]byte) {
	a.frees++
}

func (a *countingAllocator) outstanding() int {
	return a.allocs - a.frees
}
