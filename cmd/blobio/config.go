package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/hupe1980/blobio"
	"github.com/hupe1980/blobio/blobstore"
	miniostore "github.com/hupe1980/blobio/blobstore/minio"
	s3store "github.com/hupe1980/blobio/blobstore/s3"
	"github.com/hupe1980/blobio/codec"
	"github.com/hupe1980/blobio/internal/cache"
	"github.com/hupe1980/blobio/resource"
)

const (
	backendLocal = "local"
	backendS3    = "s3"
	backendMinIO = "minio"
)

type config struct {
	Backend    string
	Root       string
	Sync       bool
	Bucket     string
	Prefix     string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Insecure   bool
	BufferSize int
	CacheSize  int64
	IOLimit    int64
	Codec      string
	Verbose    bool
}

func loadConfig(f *FlagLoader) (config, error) {
	cfg := config{
		Backend:    strings.ToLower(f.String("backend")),
		Root:       f.String("root"),
		Sync:       f.Bool("sync"),
		Bucket:     f.String("bucket"),
		Prefix:     f.String("prefix"),
		Region:     f.String("region"),
		Endpoint:   f.String("endpoint"),
		AccessKey:  f.String("access-key"),
		SecretKey:  f.String("secret-key"),
		Insecure:   f.Bool("insecure"),
		BufferSize: f.Int("buffer-size"),
		CacheSize:  f.Int64("cache-size"),
		IOLimit:    f.Int64("io-limit"),
		Codec:      strings.ToLower(f.String("codec")),
		Verbose:    f.Bool("verbose"),
	}

	switch cfg.Backend {
	case backendLocal:
	case backendS3, backendMinIO:
		if cfg.Bucket == "" {
			return cfg, fmt.Errorf("backend %s requires --bucket", cfg.Backend)
		}
		if cfg.Backend == backendMinIO && cfg.Endpoint == "" {
			return cfg, fmt.Errorf("backend minio requires --endpoint")
		}
	default:
		return cfg, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if cfg.BufferSize <= 0 {
		return cfg, fmt.Errorf("%w: %d", blobio.ErrInvalidBufferSize, cfg.BufferSize)
	}
	if _, err := codec.Lookup(cfg.Codec); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openStore builds the configured backend, wrapped in a block cache when
// --cache-size is positive.
func openStore(ctx context.Context, cfg config) (blobstore.BlobStore, error) {
	var store blobstore.BlobStore
	switch cfg.Backend {
	case backendS3:
		opts := []s3store.Option{s3store.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			opts = append(opts, s3store.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(cfg.Endpoint))
		}
		s, err := s3store.New(ctx, cfg.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		store = s
	case backendMinIO:
		creds := credentials.NewEnvMinio()
		if cfg.AccessKey != "" {
			creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
		}
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  creds,
			Secure: !cfg.Insecure,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		store = miniostore.NewStore(client, cfg.Bucket, cfg.Prefix)
	default:
		var opts []blobstore.LocalOption
		if cfg.Sync {
			opts = append(opts, blobstore.WithSync())
		}
		store = blobstore.NewLocalStore(cfg.Root, opts...)
	}

	if cfg.CacheSize > 0 {
		store = blobstore.NewCachingStore(store, cache.NewLRUBlockCache(cfg.CacheSize, nil), blobstore.DefaultCacheBlockSize)
	}
	return store, nil
}

func (cfg config) registryOptions() []blobstore.RegistryOption {
	if cfg.IOLimit <= 0 {
		return nil
	}
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: cfg.IOLimit})
	return []blobstore.RegistryOption{blobstore.WithIOLimit(rc)}
}

func (cfg config) streamOptions(cmd *cobra.Command, metrics blobio.MetricsCollector) []blobio.Option {
	opts := []blobio.Option{
		blobio.WithBufferSize(cfg.BufferSize),
		blobio.WithMetricsCollector(metrics),
	}
	if cfg.Verbose {
		opts = append(opts, blobio.WithLogger(blobio.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}
	return opts
}
