package blobio

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/blobio/blobstore"
	"github.com/hupe1980/blobio/internal/mem"
	"github.com/hupe1980/blobio/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Capabilities(t *testing.T) {
	ctx := context.Background()

	for m := ModeRead; m <= ModeAppendUpdate; m++ {
		t.Run(m.String(), func(t *testing.T) {
			store := &fakeStore{data: []byte("abc")}
			s, err := Open(ctx, store, 3, m, WithBufferSize(16))
			require.NoError(t, err)

			caps, _ := resolveMode(m)
			assert.Equal(t, caps, s.flags&capabilityMask)
			assert.Equal(t, blobstore.Descriptor(3), s.Descriptor())
			assert.Equal(t, m, s.Mode())
			assert.Equal(t, 16, s.BufferSize())

			if m == ModeAppend || m == ModeAppendUpdate {
				assert.Equal(t, int64(3), s.Tell())
				assert.Equal(t, 1, store.lengths)
			} else {
				assert.Zero(t, s.Tell())
				assert.Zero(t, store.lengths)
			}
			require.NoError(t, s.Close())
		})
	}
}

func TestOpen_InvalidModeAllocatesNothing(t *testing.T) {
	alloc := &countingAllocator{}
	store := &fakeStore{}

	s, err := Open(context.Background(), store, 0, Mode(6), WithAllocator(alloc))
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Zero(t, alloc.allocs)
	assert.Zero(t, store.lengths)
}

func TestOpen_AllocationFailure(t *testing.T) {
	alloc := &countingAllocator{err: errBoom}

	s, err := Open(context.Background(), &fakeStore{}, 0, ModeRead, WithAllocator(alloc))
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.ErrorIs(t, err, errBoom)
}

func TestOpen_OversizedBuffer(t *testing.T) {
	for _, n := range []int{math.MaxInt / 2, math.MaxInt} {
		s, err := Open(context.Background(), &fakeStore{}, 0, ModeRead, WithBufferSize(n))
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrOutOfMemory, "size %d", n)
		assert.ErrorIs(t, err, mem.ErrAllocFailed, "size %d", n)
	}
}

func TestOpen_ResourceController(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})

	s, err := Open(ctx, &fakeStore{}, 0, ModeRead, WithBufferSize(80), WithResourceController(rc))
	require.NoError(t, err)
	assert.Equal(t, int64(80), rc.MemoryUsage())

	_, err = Open(ctx, &fakeStore{}, 0, ModeRead, WithBufferSize(80), WithResourceController(rc))
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	require.NoError(t, s.Close())
	assert.Zero(t, rc.MemoryUsage())
}

func TestOpen_FailureAfterAllocationReleasesBuffer(t *testing.T) {
	alloc := &countingAllocator{}
	store := &fakeStore{lengthErr: errBoom}

	s, err := Open(context.Background(), store, 0, ModeAppend, WithAllocator(alloc))
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrStoreFetch)
	assert.ErrorIs(t, err, errBoom)

	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "length", se.Op)
	assert.Equal(t, 1, alloc.allocs)
	assert.Zero(t, alloc.outstanding())
}

func TestOpen_ExternalBuffer(t *testing.T) {
	alloc := &countingAllocator{}
	buf := make([]byte, 4)
	store := &fakeStore{}

	s, err := Open(context.Background(), store, 0, ModeWrite, WithBuffer(buf), WithAllocator(alloc))
	require.NoError(t, err)
	assert.Equal(t, 4, s.BufferSize())
	assert.Equal(t, 6, s.Puts("abcdef"))
	require.NoError(t, s.Close())

	assert.Zero(t, alloc.allocs)
	assert.Zero(t, alloc.frees)
	assert.Equal(t, "abcdef", string(store.data))

	_, err = Open(context.Background(), store, 0, ModeWrite, WithBuffer([]byte{}))
	assert.ErrorIs(t, err, ErrInvalidBufferSize)
}

func TestOpen_WriteModesTruncate(t *testing.T) {
	ctx := context.Background()

	for _, m := range []Mode{ModeWrite, ModeWriteUpdate} {
		store := truncatingStore{&fakeStore{data: []byte("old content")}}
		s, err := Open(ctx, store, 0, m)
		require.NoError(t, err)
		assert.Equal(t, 1, store.truncates)
		assert.Empty(t, store.data)
		require.NoError(t, s.Close())
	}

	for _, m := range []Mode{ModeRead, ModeReadUpdate, ModeAppend, ModeAppendUpdate} {
		store := truncatingStore{&fakeStore{data: []byte("old content")}}
		s, err := Open(ctx, store, 0, m)
		require.NoError(t, err)
		assert.Zero(t, store.truncates)
		require.NoError(t, s.Close())
	}
}

func TestClose(t *testing.T) {
	alloc := &countingAllocator{}
	store := &fakeStore{}

	s, err := Open(context.Background(), store, 5, ModeWriteUpdate, WithAllocator(alloc), WithBufferSize(8))
	require.NoError(t, err)
	require.NoError(t, s.PutC('x'))

	require.NoError(t, s.Close())
	assert.Equal(t, []writeCall{{data: "x", off: 0}}, store.writes)
	assert.Zero(t, alloc.outstanding())
	assert.Equal(t, blobstore.InvalidDescriptor, s.Descriptor())
	assert.Zero(t, s.BufferSize())
	assert.Zero(t, s.Tell())

	// Idempotent.
	require.NoError(t, s.Close())
	assert.Equal(t, 1, alloc.frees)
	assert.Len(t, store.writes, 1)

	// I/O after close makes no progress.
	assert.Zero(t, s.ReadBlock(make([]byte, 4), 1, 4))
	assert.Zero(t, s.WriteBlock([]byte("abcd"), 1, 4))
	assert.Equal(t, EOFChar, s.GetC())
	assert.ErrorIs(t, s.PutC('y'), ErrClosed)
	assert.ErrorIs(t, s.Flush(), ErrClosed)
	_, err = s.Seek(0, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Write([]byte("z"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, s.Gets(make([]byte, 4)))
	assert.Zero(t, s.Puts("zz"))
	assert.Len(t, store.writes, 1)
}

func TestClose_FlushFailure(t *testing.T) {
	alloc := &countingAllocator{}
	store := &fakeStore{writeErr: errBoom}

	s, err := Open(context.Background(), store, 0, ModeWrite, WithAllocator(alloc))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Puts("abc"))

	err = s.Close()
	assert.ErrorIs(t, err, ErrStoreWrite)
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, alloc.outstanding())
	assert.ErrorIs(t, s.Err(), ErrStoreWrite)
}

func TestOpen_MetricsAndLogger(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	store := &fakeStore{data: []byte("abcd")}

	s, err := Open(context.Background(), store, 0, ModeReadUpdate,
		WithBufferSize(2),
		WithMetricsCollector(metrics),
		WithLogger(nil),
	)
	require.NoError(t, err)

	p := make([]byte, 4)
	assert.Equal(t, 4, s.ReadBlock(p, 1, 4))
	assert.Equal(t, 1, s.Puts("Z"))
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), store, 0, Mode(42), WithMetricsCollector(metrics))
	require.Error(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.OpenCount)
	assert.Equal(t, int64(1), stats.CloseCount)
	assert.Equal(t, int64(2), stats.FetchCount)
	assert.Equal(t, int64(4), stats.FetchBytes)
	assert.Equal(t, int64(1), stats.FlushCount)
	assert.Equal(t, int64(1), stats.FlushBytes)
	assert.Equal(t, "abcdZ", string(store.data))
}
