package blobio

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    fetchBytes    prometheus.Counter
//	    flushDuration prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordFlush(bytes int, duration time.Duration, err error) {
//	    p.flushDuration.Observe(duration.Seconds())
//	    // ... record error state, bytes, etc.
//	}
type MetricsCollector interface {
	// RecordOpen is called after each Open, err is nil if successful.
	RecordOpen(mode Mode, err error)

	// RecordClose is called after each Close of an open stream.
	RecordClose(err error)

	// RecordFetch is called after each fetch round trip.
	// bytes is the number of bytes returned, zero at end of stream.
	RecordFetch(bytes int, duration time.Duration, err error)

	// RecordFlush is called after each flush round trip.
	RecordFlush(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(Mode, error)                {}
func (NoopMetricsCollector) RecordClose(error)                     {}
func (NoopMetricsCollector) RecordFetch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFlush(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
// It is safe to share between streams.
type BasicMetricsCollector struct {
	OpenCount       atomic.Int64
	OpenErrors      atomic.Int64
	CloseCount      atomic.Int64
	CloseErrors     atomic.Int64
	FetchCount      atomic.Int64
	FetchErrors     atomic.Int64
	FetchBytes      atomic.Int64
	FetchTotalNanos atomic.Int64
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	FlushBytes      atomic.Int64
	FlushTotalNanos atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(_ Mode, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordClose implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClose(err error) {
	b.CloseCount.Add(1)
	if err != nil {
		b.CloseErrors.Add(1)
	}
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(bytes int, duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchBytes.Add(int64(bytes))
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(bytes int, duration time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FlushErrors.Add(1)
		return
	}
	b.FlushBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:     b.OpenCount.Load(),
		OpenErrors:    b.OpenErrors.Load(),
		CloseCount:    b.CloseCount.Load(),
		CloseErrors:   b.CloseErrors.Load(),
		FetchCount:    b.FetchCount.Load(),
		FetchErrors:   b.FetchErrors.Load(),
		FetchBytes:    b.FetchBytes.Load(),
		FetchAvgNanos: avg(b.FetchTotalNanos.Load(), b.FetchCount.Load()),
		FlushCount:    b.FlushCount.Load(),
		FlushErrors:   b.FlushErrors.Load(),
		FlushBytes:    b.FlushBytes.Load(),
		FlushAvgNanos: avg(b.FlushTotalNanos.Load(), b.FlushCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount     int64
	OpenErrors    int64
	CloseCount    int64
	CloseErrors   int64
	FetchCount    int64
	FetchErrors   int64
	FetchBytes    int64
	FetchAvgNanos int64
	FlushCount    int64
	FlushErrors   int64
	FlushBytes    int64
	FlushAvgNanos int64
}
