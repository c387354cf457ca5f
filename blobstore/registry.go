package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/hupe1980/blobio/resource"
)

// Registry maps descriptors to open blobs of a BlobStore and serves the
// window round trips of streams.
//
// Registry is safe for concurrent use.
type Registry struct {
	store BlobStore
	rc    *resource.Controller

	mu    sync.RWMutex
	blobs map[Descriptor]*entry
}

type entry struct {
	name string
	blob Blob
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIOLimit throttles every round trip by its byte count using rc.
func WithIOLimit(rc *resource.Controller) RegistryOption {
	return func(r *Registry) {
		r.rc = rc
	}
}

// NewRegistry creates a Registry over store.
func NewRegistry(store BlobStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		store: store,
		blobs: make(map[Descriptor]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register opens the named blob and assigns it the lowest free descriptor.
func (r *Registry) Register(ctx context.Context, name string) (Descriptor, error) {
	b, err := r.store.Open(ctx, name)
	if err != nil {
		return InvalidDescriptor, fmt.Errorf("open blob %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.lowestFree()
	r.blobs[d] = &entry{name: name, blob: b}
	return d, nil
}

func (r *Registry) lowestFree() Descriptor {
	used := make([]int, 0, len(r.blobs))
	for d := range r.blobs {
		used = append(used, int(d))
	}
	sort.Ints(used)

	next := 0
	for _, d := range used {
		if next < d {
			break
		}
		next++
	}
	return Descriptor(next)
}

// Unregister removes a descriptor and closes its blob. Streams still
// holding d fail with ErrBadDescriptor afterwards.
func (r *Registry) Unregister(d Descriptor) error {
	r.mu.Lock()
	e, ok := r.blobs[d]
	delete(r.blobs, d)
	r.mu.Unlock()

	if !ok {
		return ErrBadDescriptor
	}
	return e.blob.Close()
}

// Name returns the blob name registered under d.
func (r *Registry) Name(d Descriptor) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.blobs[d]
	if !ok {
		return "", false
	}
	return e.name, true
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}

// Close unregisters every descriptor.
func (r *Registry) Close() error {
	r.mu.Lock()
	blobs := r.blobs
	r.blobs = make(map[Descriptor]*entry)
	r.mu.Unlock()

	var errs []error
	for _, e := range blobs {
		if err := e.blob.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) lookup(d Descriptor) (Blob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.blobs[d]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadDescriptor, d)
	}
	return e.blob, nil
}

// FetchWindow implements Store.
func (r *Registry) FetchWindow(ctx context.Context, d Descriptor, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	b, err := r.lookup(d)
	if err != nil {
		return 0, err
	}
	if err := r.rc.AcquireIO(ctx, len(p)); err != nil {
		return 0, err
	}

	n, err := b.ReadAt(ctx, p, off)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

// WriteWindow implements Store.
func (r *Registry) WriteWindow(ctx context.Context, d Descriptor, p []byte, off int64) error {
	if err := ValidateOffset(off); err != nil {
		return err
	}
	b, err := r.lookup(d)
	if err != nil {
		return err
	}
	if err := r.rc.AcquireIO(ctx, len(p)); err != nil {
		return err
	}
	return b.WriteAt(ctx, p, off)
}

// Length implements Store.
func (r *Registry) Length(ctx context.Context, d Descriptor) (int64, error) {
	b, err := r.lookup(d)
	if err != nil {
		return 0, err
	}
	return b.Size(ctx)
}

// Truncate implements Truncater.
func (r *Registry) Truncate(ctx context.Context, d Descriptor, size int64) error {
	if size < 0 {
		return ErrInvalidOffset
	}
	b, err := r.lookup(d)
	if err != nil {
		return err
	}
	return b.Truncate(ctx, size)
}

var (
	_ Store     = (*Registry)(nil)
	_ Truncater = (*Registry)(nil)
)
