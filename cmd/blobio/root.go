package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hupe1980/blobio"
	"github.com/hupe1980/blobio/blobstore"
	"github.com/hupe1980/blobio/codec"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BLOBIO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "blobio",
		Short:        "Buffered stream I/O over blob stores",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("backend", backendLocal, "Blob backend: local, s3 or minio")
	pf.String("root", ".", "Root directory of the local backend")
	pf.Bool("sync", false, "fdatasync local writes")
	pf.String("bucket", "", "Bucket of the s3 and minio backends")
	pf.String("prefix", "", "Key prefix of the s3 and minio backends")
	pf.String("region", "", "Bucket region")
	pf.String("endpoint", "", "Custom S3 endpoint or MinIO host:port")
	pf.String("access-key", "", "MinIO access key (default from MINIO_ACCESS_KEY)")
	pf.String("secret-key", "", "MinIO secret key (default from MINIO_SECRET_KEY)")
	pf.Bool("insecure", false, "Use plain HTTP for MinIO")
	pf.Int("buffer-size", blobio.DefaultBufferSize, "Stream window size in bytes")
	pf.Int64("cache-size", 0, "Read cache capacity in bytes (0 disables)")
	pf.Int64("io-limit", 0, "Store throughput limit in bytes per second (0 is unlimited)")
	pf.String("codec", "none", "Payload codec: none, zstd or lz4")
	pf.BoolP("verbose", "v", false, "Log store round trips and print stream stats")

	pf.VisitAll(func(fl *pflag.Flag) {
		v.SetDefault(fl.Name, fl.DefValue)
	})

	root.AddCommand(
		newCatCmd(v),
		newPutCmd(v, "put", blobio.ModeWrite, "Replace a blob with standard input"),
		newPutCmd(v, "append", blobio.ModeAppend, "Append standard input to a blob"),
		newStatCmd(v),
		newLsCmd(v),
		newRmCmd(v),
	)
	return root
}

// session holds the store and registry used by one command run.
type session struct {
	cfg     config
	store   blobstore.BlobStore
	reg     *blobstore.Registry
	metrics *blobio.BasicMetricsCollector
	codec   codec.Codec
}

func newSession(cmd *cobra.Command, v *viper.Viper) (*session, error) {
	cfg, err := loadConfig(NewFlagLoader(cmd, v))
	if err != nil {
		return nil, err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	c, err := codec.Lookup(cfg.Codec)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		store:   store,
		reg:     blobstore.NewRegistry(store, cfg.registryOptions()...),
		metrics: &blobio.BasicMetricsCollector{},
		codec:   c,
	}, nil
}

// stream opens name in mode and passes the stream to fn.
func (s *session) stream(cmd *cobra.Command, name string, mode blobio.Mode, fn func(*blobio.Stream) error) (err error) {
	ctx := cmd.Context()
	d, err := s.reg.Register(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.reg.Unregister(d))
	}()

	st, err := blobio.Open(ctx, s.reg, d, mode, s.cfg.streamOptions(cmd, s.metrics)...)
	if err != nil {
		return err
	}
	err = fn(st)
	if cerr := st.Close(); err == nil {
		err = cerr
	}
	if s.cfg.Verbose {
		printStats(cmd.ErrOrStderr(), s.metrics.GetStats())
	}
	return err
}

func (s *session) close() error {
	return s.reg.Close()
}

func withSession(v *viper.Viper, fn func(*cobra.Command, *session, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if cmd.Context() == nil {
			cmd.SetContext(context.Background())
		}
		s, err := newSession(cmd, v)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, s.close())
		}()
		return fn(cmd, s, args)
	}
}

func newCatCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "cat NAME",
		Short: "Write a blob to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(v, func(cmd *cobra.Command, s *session, args []string) error {
			return s.stream(cmd, args[0], blobio.ModeRead, func(st *blobio.Stream) error {
				r, err := s.codec.NewReader(st)
				if err != nil {
					return err
				}
				defer r.Close()
				_, err = io.Copy(cmd.OutOrStdout(), r)
				return err
			})
		}),
	}
}

func newPutCmd(v *viper.Viper, use string, mode blobio.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withSession(v, func(cmd *cobra.Command, s *session, args []string) error {
			return s.stream(cmd, args[0], mode, func(st *blobio.Stream) error {
				w, err := s.codec.NewWriter(st)
				if err != nil {
					return err
				}
				if _, err := io.Copy(w, cmd.InOrStdin()); err != nil {
					_ = w.Close()
					return err
				}
				if err := w.Close(); err != nil {
					return err
				}
				return st.Flush()
			})
		}),
	}
}

func newStatCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stat NAME",
		Short: "Print the size of a blob",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(v, func(cmd *cobra.Command, s *session, args []string) error {
			return s.stream(cmd, args[0], blobio.ModeRead, func(st *blobio.Stream) error {
				size, err := st.Seek(0, io.SeekEnd)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", args[0], size)
				return err
			})
		}),
	}
}

func newLsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [PREFIX]",
		Short: "List blob names",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(v, func(cmd *cobra.Command, s *session, args []string) error {
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}
			names, err := s.store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, name := range names {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func newRmCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME...",
		Short: "Delete blobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(v, func(cmd *cobra.Command, s *session, args []string) error {
			for _, name := range args {
				if err := s.store.Delete(cmd.Context(), name); err != nil {
					return fmt.Errorf("rm %s: %w", name, err)
				}
			}
			return nil
		}),
	}
}

func printStats(w io.Writer, st blobio.BasicMetricsStats) {
	fmt.Fprintf(w, "fetches=%d fetch_bytes=%d flushes=%d flush_bytes=%d errors=%d\n",
		st.FetchCount, st.FetchBytes, st.FlushCount, st.FlushBytes, st.FetchErrors+st.FlushErrors)
}
