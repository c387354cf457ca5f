// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with positional read/write, truncate and sync
//   - [FileSystem]: filesystem operations (open, remove, stat, mkdir, readdir)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("data.bin", fs.Fault{FailAfterBytes: 1024}) // fail after 1KB written
//	// inject ffs into component under test
//
// Operations take no context.Context; local file I/O is not interruptible.
package fs
