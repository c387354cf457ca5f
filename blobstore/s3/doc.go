// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("streams/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	reg := blobstore.NewRegistry(store)
//
// # Features
//
//   - Ranged GETs for window fetches
//   - Whole-object rewrite for positioned writes and appends
//   - CRC32C checksums on every upload
//   - Multipart uploads for objects larger than one part
//   - Automatic pagination for listing
package s3
