package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/blobio/blobstore"
	"github.com/minio/minio-go/v7"
)

// Store implements blobstore.BlobStore for MinIO and S3-compatible storage.
//
// Objects are rewritten as a whole on every write. Writes to the same key
// are serialized within one Store.
type Store struct {
	client *minio.Client
	bucket string
	prefix string

	locks sync.Map // key -> *sync.Mutex
}

// NewStore creates a new MinIO blob store.
// bucket is the MinIO bucket name.
// rootPrefix is prepended to all keys (e.g. "streams/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) lock(key string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound" || resp.StatusCode == http.StatusNotFound
}

func isInvalidRange(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "InvalidRange" || resp.StatusCode == http.StatusRequestedRangeNotSatisfiable
}

// Open returns a handle to the object. Missing objects read as empty.
func (s *Store) Open(_ context.Context, name string) (blobstore.Blob, error) {
	return &minioBlob{store: s, key: s.key(name)}, nil
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns all blob names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	if prefix == "" && s.prefix != "" && !strings.HasSuffix(fullPrefix, "/") {
		fullPrefix += "/"
	}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		// Strip our root prefix
		name := strings.TrimPrefix(obj.Key, s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

// minioBlob implements blobstore.Blob for MinIO.
type minioBlob struct {
	store *Store
	key   string
}

func (b *minioBlob) Size(ctx context.Context) (int64, error) {
	info, err := b.store.client.StatObject(ctx, b.store.bucket, b.key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.Size, nil
}

func (b *minioBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, blobstore.ErrInvalidOffset
	}
	if len(p) == 0 {
		return 0, nil
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+int64(len(p))-1); err != nil {
		return 0, err
	}

	obj, err := b.store.client.GetObject(ctx, b.store.bucket, b.key, opts)
	if err != nil {
		return 0, err
	}
	defer func() { _ = obj.Close() }()

	// The request is sent lazily; errors surface on the first read.
	n, err := io.ReadFull(obj, p)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return n, io.EOF
	case isNotFound(err), isInvalidRange(err):
		return 0, io.EOF
	default:
		return n, err
	}
}

// load returns the whole object, or nil if it does not exist.
func (b *minioBlob) load(ctx context.Context) ([]byte, error) {
	obj, err := b.store.client.GetObject(ctx, b.store.bucket, b.key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (b *minioBlob) put(ctx context.Context, data []byte) error {
	_, err := b.store.client.PutObject(ctx, b.store.bucket, b.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

func (b *minioBlob) WriteAt(ctx context.Context, p []byte, off int64) error {
	if err := blobstore.ValidateOffset(off); err != nil {
		return err
	}

	mu := b.store.lock(b.key)
	mu.Lock()
	defer mu.Unlock()

	cur, err := b.load(ctx)
	if err != nil {
		return err
	}
	return b.put(ctx, blobstore.Splice(cur, p, off))
}

func (b *minioBlob) Truncate(ctx context.Context, size int64) error {
	if size < 0 {
		return blobstore.ErrInvalidOffset
	}

	mu := b.store.lock(b.key)
	mu.Lock()
	defer mu.Unlock()

	cur, err := b.load(ctx)
	if err != nil {
		return err
	}
	if size <= int64(len(cur)) {
		cur = cur[:size]
	} else {
		cur = blobstore.Splice(cur, nil, size)
	}
	return b.put(ctx, cur)
}

func (b *minioBlob) Close() error {
	return nil
}

var _ blobstore.BlobStore = (*Store)(nil)
