package mem

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/hupe1980/blobio/resource"
)

// Alignment is the byte alignment of every allocated buffer (64 bytes).
const Alignment = 64

// ErrInvalidSize is returned when a non-positive size is requested.
var ErrInvalidSize = errors.New("mem: invalid allocation size")

// ErrAllocFailed is returned when the runtime cannot provide a buffer.
var ErrAllocFailed = errors.New("mem: allocation failed")

// AllocAligned allocates a byte slice of the given size with 64-byte alignment.
// The returned slice is guaranteed to start at a memory address divisible by 64.
//
// Note: This function allocates slightly more memory than requested to ensure alignment.
// The underlying array is kept alive by the returned slice.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	// Allocate size + alignment to ensure we can find an aligned offset
	totalSize := size + Alignment
	buf := make([]byte, totalSize)

	// Calculate the offset to the first aligned byte
	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	// Return the slice starting at the aligned offset, capped so that
	// appends can never spill into the alignment slack.
	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// allocAligned is AllocAligned with failures reported as errors instead of
// runtime panics.
func allocAligned(n int) (buf []byte, err error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	if n > math.MaxInt-Alignment {
		return nil, fmt.Errorf("%w: %d bytes", ErrAllocFailed, n)
	}
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: %d bytes: %v", ErrAllocFailed, n, r)
		}
	}()
	return AllocAligned(n), nil
}

// Heap allocates buffers from the Go heap. Free is a no-op; the garbage
// collector reclaims the memory once the buffer is unreachable.
type Heap struct{}

// Alloc returns a zeroed, aligned buffer of n bytes.
func (Heap) Alloc(n int) ([]byte, error) {
	return allocAligned(n)
}

// Free implements the allocator contract.
func (Heap) Free([]byte) {}

// Budget allocates buffers whose sizes are reserved against a resource.Controller.
type Budget struct {
	rc *resource.Controller
}

// NewBudget creates a Budget backed by rc. A nil rc imposes no limit.
func NewBudget(rc *resource.Controller) *Budget {
	return &Budget{rc: rc}
}

// Alloc reserves n bytes and returns an aligned buffer.
// It fails with resource.ErrMemoryLimitExceeded without allocating when the
// reservation does not fit.
func (b *Budget) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	if !b.rc.TryAcquireMemory(int64(n)) {
		return nil, resource.ErrMemoryLimitExceeded
	}
	buf, err := allocAligned(n)
	if err != nil {
		b.rc.ReleaseMemory(int64(n))
		return nil, err
	}
	return buf, nil
}

// Free returns the reservation held by buf.
func (b *Budget) Free(buf []byte) {
	b.rc.ReleaseMemory(int64(len(buf)))
}
