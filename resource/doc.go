// Package resource provides process-wide budgets shared by open streams.
//
// A Controller tracks two things:
//
//   - Memory: window buffers are reserved against MemoryLimitBytes before they
//     are allocated. A reservation that would exceed the limit fails instead
//     of blocking, which Open reports as an out-of-memory condition.
//   - IO: store round trips can be throttled to IOLimitBytesPerSec.
//
// A nil *Controller is valid and imposes no limits.
package resource
