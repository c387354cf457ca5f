//go:build !linux

package blobstore

import "github.com/hupe1980/blobio/internal/fs"

// datasync falls back to Sync on non-Linux platforms.
func datasync(f fs.File) error {
	return f.Sync()
}
