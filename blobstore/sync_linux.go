//go:build linux

package blobstore

import (
	"github.com/hupe1980/blobio/internal/fs"
	"golang.org/x/sys/unix"
)

type fder interface {
	Fd() uintptr
}

// datasync flushes file data to disk without unnecessary metadata.
// Files that do not expose a descriptor fall back to Sync.
func datasync(f fs.File) error {
	if fd, ok := f.(fder); ok {
		return unix.Fdatasync(int(fd.Fd())) //nolint:gosec // descriptors fit in int
	}
	return f.Sync()
}
