// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Window buffers are 64-byte aligned so that bulk copies in and out of the
// window start on a cache line.
//
// # Allocators
//
// Heap allocates straight from the Go heap. Budget additionally reserves every
// allocation against a resource.Controller and fails with
// resource.ErrMemoryLimitExceeded instead of growing past the limit.
package mem
