package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	// Test MkdirAll
	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0755))

	// Test OpenFile (Create)
	fpath := filepath.Join(dir, "test.txt")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	// Positional write, then a write past the end leaves a zero-filled hole
	_, err = f.WriteAt([]byte("hello"), 0)
	assert.NoError(t, err)
	_, err = f.WriteAt([]byte("!"), 7)
	assert.NoError(t, err)

	buf := make([]byte, 8)
	n, err := f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte("hello\x00\x00!"), buf)

	// Sync
	assert.NoError(t, f.Sync())

	// Truncate via File
	require.NoError(t, f.Truncate(3))
	info, err := f.Stat()
	assert.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())

	n, err = f.ReadAt(buf, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, n)

	assert.NoError(t, f.Close())

	// ReadDir
	entries, err := lfs.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	// Remove
	assert.NoError(t, lfs.Remove(fpath))
	_, err = lfs.Stat(fpath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_WriteLimit(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("faulty", Fault{FailAfterBytes: 5})

	fpath := filepath.Join(tmp, "faulty.txt")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	defer f.Close()

	// Write 5 bytes - OK
	n, err := f.WriteAt([]byte("hello"), 0)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	// Next byte exceeds the limit
	n, err = f.WriteAt([]byte("!"), 5)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)
}

func TestFaultyFS_Rules(t *testing.T) {
	tmp := t.TempDir()
	custom := errors.New("disk on fire")

	ffs := NewFaultyFS(nil)
	ffs.AddRule("broken", Fault{FailAfterBytes: -1, FailOnRead: true, FailOnSync: true, FailOnTruncate: true, FailOnClose: true, Err: custom})

	healthy, err := ffs.OpenFile(filepath.Join(tmp, "healthy.bin"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = healthy.WriteAt([]byte("ok"), 0)
	require.NoError(t, err)
	require.NoError(t, healthy.Sync())
	require.NoError(t, healthy.Close())

	broken, err := ffs.OpenFile(filepath.Join(tmp, "broken.bin"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	_, err = broken.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, custom)
	assert.ErrorIs(t, broken.Sync(), custom)
	assert.ErrorIs(t, broken.Truncate(0), custom)
	assert.ErrorIs(t, broken.Close(), custom)

	ffs.ClearRules()
	again, err := ffs.OpenFile(filepath.Join(tmp, "broken.bin"), os.O_RDWR, 0644)
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}
