// Package hash provides checksums for object uploads.
//
// Object uploads carry a CRC32C checksum so the store can reject a window
// that was corrupted in transit. CRC32C is the checksum S3 and most
// S3-compatible stores verify natively:
//
//	input.ChecksumCRC32C = aws.String(hash.CRC32CBase64(data))
package hash
