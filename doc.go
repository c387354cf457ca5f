// Package blobio provides buffered stream I/O over blobs that can only be
// reached through window-sized round trips.
//
// A Stream mediates between byte, line and record oriented calls and the
// three operations of a blobstore.Store: fetch a window at an offset, write
// a window at an offset, and report the length of the blob.
//
// # Quick Start
//
//	ctx := context.Background()
//	reg := blobstore.NewRegistry(blobstore.NewLocalStore("./data"))
//	d, _ := reg.Register(ctx, "greeting.txt")
//
//	w, _ := blobio.Open(ctx, reg, d, blobio.ModeWrite)
//	w.Puts("Hello world!\n")
//	w.Close()
//
//	r, _ := blobio.Open(ctx, reg, d, blobio.ModeRead)
//	line := r.Gets(make([]byte, 64))
//	r.Close()
//
// # Modes
//
//	ModeRead          "r"   read
//	ModeReadUpdate    "r+"  read and write at the position
//	ModeWrite         "w"   truncate, then write at the position
//	ModeWriteUpdate   "w+"  truncate, then read and write at the position
//	ModeAppend        "a"   read, writes go to the end of the blob
//	ModeAppendUpdate  "a+"  read, writes go to the end of the blob
//
// Writes at a position beyond the end of the blob zero-fill the gap.
//
// # Buffering
//
// Each stream owns one window of DefaultBufferSize bytes unless WithBuffer
// or WithBufferSize is given. The window holds either read-ahead or pending
// writes. Switching from writing to reading flushes; switching from reading
// to writing drops the unread read-ahead. Flush, Seek and Close write
// pending bytes to the store.
//
// # Errors
//
// The stdio-style calls (ReadBlock, WriteBlock, GetC, Gets, Puts) report
// progress only. End of stream and store failures are recorded as sticky
// state and queried with EOF and Err; ClearErr resets the error, and any
// positioning call resets EOF. The io adapters (Read, Write, ReadByte,
// WriteByte, WriteString) return errors directly, so a Stream can be used
// with io.Copy, bufio and the compression libraries.
package blobio
