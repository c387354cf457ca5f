package blobio

import (
	"log/slog"

	"github.com/hupe1980/blobio/internal/mem"
	"github.com/hupe1980/blobio/resource"
)

// DefaultBufferSize is the window size of a Stream unless configured otherwise.
const DefaultBufferSize = 1_000_000

// Allocator provides window buffers.
type Allocator interface {
	// Alloc returns a buffer of exactly n bytes.
	Alloc(n int) ([]byte, error)
	// Free releases a buffer returned by Alloc.
	Free(buf []byte)
}

type options struct {
	bufferSize       int
	buffer           []byte
	allocator        Allocator
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Open.
type Option func(*options)

// WithBufferSize sets the window size. Non-positive sizes are ignored.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithBuffer makes the stream use buf as its window. The buffer stays owned
// by the caller and is never passed to the allocator.
func WithBuffer(buf []byte) Option {
	return func(o *options) {
		o.buffer = buf
	}
}

// WithAllocator sets the allocator for window buffers.
//
// If nil is passed, buffers come from the Go heap.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		if a == nil {
			a = mem.Heap{}
		}
		o.allocator = a
	}
}

// WithResourceController reserves window buffers against the memory limit
// of rc. Open fails with ErrOutOfMemory when the reservation does not fit.
//
// Example:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	s, err := blobio.Open(ctx, reg, d, blobio.ModeRead, blobio.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.allocator = mem.NewBudget(rc)
	}
}

// WithMetricsCollector enables metrics collection for round trips.
//
// Example:
//
//	metrics := &blobio.BasicMetricsCollector{}
//	s, _ := blobio.Open(ctx, reg, d, blobio.ModeRead, blobio.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
//	fmt.Printf("Fetches: %d, Avg latency: %dns\n", stats.FetchCount, stats.FetchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for round trips.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		bufferSize:       DefaultBufferSize,
		allocator:        mem.Heap{},
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
