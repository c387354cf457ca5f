package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/blobio/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()

	// Create a unique prefix for this test run
	prefix := fmt.Sprintf("test-blobio-%d/", time.Now().UnixNano())
	store, err := New(ctx, bucket, WithPrefix(prefix))
	require.NoError(t, err)

	reg := blobstore.NewRegistry(store)
	d, err := reg.Register(ctx, "test.blob")
	require.NoError(t, err)

	require.NoError(t, reg.WriteWindow(ctx, d, []byte("hello"), 0))
	require.NoError(t, reg.WriteWindow(ctx, d, []byte(" world"), blobstore.AppendOffset))

	size, err := reg.Length(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	buf := make([]byte, 32)
	n, err := reg.FetchWindow(ctx, d, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf[:n]))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.blob")

	require.NoError(t, reg.Unregister(d))
	require.NoError(t, store.Delete(ctx, "test.blob"))
}
