package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/blobio/blobstore"
)

// Store implements blobstore.BlobStore for S3.
//
// Objects are immutable in S3, so writes and truncations rewrite the whole
// object. Writes to the same key are serialized within one Store.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	cfg      UploadConfig
	uploader *manager.Uploader

	locks sync.Map // key -> *sync.Mutex
}

// Option configures a Store created by New.
type Option func(*newOptions)

type newOptions struct {
	prefix    string
	region    string
	endpoint  string
	pathStyle bool
	upload    UploadConfig
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *newOptions) { o.prefix = prefix }
}

// WithRegion overrides the region from the shared configuration.
func WithRegion(region string) Option {
	return func(o *newOptions) { o.region = region }
}

// WithEndpoint sets a custom endpoint URL and enables path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *newOptions) {
		o.endpoint = endpoint
		o.pathStyle = true
	}
}

// WithUploadConfig sets the upload configuration.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *newOptions) { o.upload = cfg }
}

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	o := newOptions{upload: DefaultUploadConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
		}
		so.UsePathStyle = o.pathStyle
	})
	return NewStoreWithConfig(client, bucket, o.prefix, o.upload), nil
}

// NewStore creates a new S3 blob store with DefaultUploadConfig.
// rootPrefix is prepended to all keys (e.g. "my-app/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return NewStoreWithConfig(client, bucket, rootPrefix, DefaultUploadConfig())
}

// NewStoreWithConfig creates a new S3 blob store.
func NewStoreWithConfig(client Client, bucket, rootPrefix string, cfg UploadConfig) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   rootPrefix,
		cfg:      cfg,
		uploader: newUploader(client, cfg),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) lock(key string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Open returns a handle to the object. Missing objects read as empty.
func (s *Store) Open(_ context.Context, name string) (blobstore.Blob, error) {
	return &s3Blob{store: s, key: s.key(name)}, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	if prefix == "" && s.prefix != "" && !strings.HasSuffix(fullPrefix, "/") {
		fullPrefix += "/"
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			rel := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			keys = append(keys, strings.TrimPrefix(rel, "/"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// s3Blob implements blobstore.Blob for a single object.
type s3Blob struct {
	store *Store
	key   string
}

func (b *s3Blob) Close() error {
	return nil
}

func (b *s3Blob) Size(ctx context.Context) (int64, error) {
	head, err := b.store.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.store.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return aws.ToInt64(head.ContentLength), nil
}

// ReadAt issues one ranged GET. Ranges past the end of the object read as EOF.
func (b *s3Blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, blobstore.ErrInvalidOffset
	}
	if len(p) == 0 {
		return 0, nil
	}

	resp, err := b.store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.store.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1)),
	})
	if err != nil {
		if isNotFound(err) || isInvalidRange(err) {
			return 0, io.EOF
		}
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.ReadFull(resp.Body, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return n, io.EOF
	}
	return n, err
}

// load returns the whole object, or nil if it does not exist.
func (b *s3Blob) load(ctx context.Context) ([]byte, error) {
	resp, err := b.store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.store.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

func (b *s3Blob) WriteAt(ctx context.Context, p []byte, off int64) error {
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
	return b.store.put(ctx, b.key, blobstore.Splice(cur, p, off))
}

func (b *s3Blob) Truncate(ctx context.Context, size int64) error {
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
	return b.store.put(ctx, b.key, cur)
}

// put replaces the object. Bodies up to one part go through a single
// checksummed PutObject; larger bodies use the multipart uploader.
func (s *Store) put(ctx context.Context, key string, data []byte) error {
	if int64(len(data)) <= s.cfg.PartSize {
		return putWithChecksum(ctx, s.client, s.bucket, key, data, s.cfg.EnableChecksum)
	}
	return upload(ctx, s.uploader, s.bucket, key, bytes.NewReader(data), s.cfg.EnableChecksum)
}

var _ blobstore.BlobStore = (*Store)(nil)
