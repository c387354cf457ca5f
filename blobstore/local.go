package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hupe1980/blobio/internal/fs"
)

// LocalStore implements BlobStore using the local file system.
type LocalStore struct {
	root string
	fs   fs.FileSystem
	sync bool
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem sets the file system used by the store.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		s.fs = fsys
	}
}

// WithSync makes every write durable before it returns.
func WithSync() LocalOption {
	return func(s *LocalStore) {
		s.sync = true
	}
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string, opts ...LocalOption) *LocalStore {
	s := &LocalStore{root: root, fs: fs.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LocalStore) path(name string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf("blobstore: invalid blob name %q", name)
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), nil
}

// Open returns a handle to the named file. The file is created by the
// first write.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	b := &localBlob{store: s, path: path}
	if err := b.reopen(); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a file.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List walks the root directory and returns slash-separated names
// matching the prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	if err := s.walk("", prefix, &names); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return names, nil
}

func (s *LocalStore) walk(dir, prefix string, names *[]string) error {
	entries, err := s.fs.ReadDir(filepath.Join(s.root, filepath.FromSlash(dir)))
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if dir != "" {
			name = dir + "/" + name
		}
		if e.IsDir() {
			if err := s.walk(name, prefix, names); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(name, prefix) {
			*names = append(*names, name)
		}
	}
	return nil
}

type localBlob struct {
	store *LocalStore
	path  string

	mu sync.Mutex
	f  fs.File // nil until the file exists
}

// reopen opens the file if another handle created it since. A missing
// file leaves f nil.
func (b *localBlob) reopen() error {
	if b.f != nil {
		return nil
	}
	f, err := b.store.fs.OpenFile(b.path, os.O_RDWR, 0)
	switch {
	case err == nil:
		b.f = f
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.reopen(); err != nil {
		return 0, err
	}
	if b.f == nil {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	return b.f.ReadAt(p, off)
}

func (b *localBlob) create() error {
	if b.f != nil {
		return nil
	}
	if err := b.store.fs.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return err
	}
	f, err := b.store.fs.OpenFile(b.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	b.f = f
	return nil
}

func (b *localBlob) WriteAt(_ context.Context, p []byte, off int64) error {
	if err := ValidateOffset(off); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.create(); err != nil {
		return err
	}
	if off == AppendOffset {
		fi, err := b.f.Stat()
		if err != nil {
			return err
		}
		off = fi.Size()
	}
	if _, err := b.f.WriteAt(p, off); err != nil {
		return err
	}
	if b.store.sync {
		return datasync(b.f)
	}
	return nil
}

func (b *localBlob) Size(context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.reopen(); err != nil {
		return 0, err
	}
	if b.f == nil {
		return 0, nil
	}
	fi, err := b.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (b *localBlob) Truncate(_ context.Context, size int64) error {
	if size < 0 {
		return ErrInvalidOffset
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.reopen(); err != nil {
		return err
	}
	if b.f == nil && size == 0 {
		return nil
	}
	if err := b.create(); err != nil {
		return err
	}
	return b.f.Truncate(size)
}

func (b *localBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}
