// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package objstore defines the opaque byte-storage contract the table layer
// consumes (spec §4.5). The core never retries at this layer; retry policy
// belongs to the caller.
package objstore

import "context"

// ByteRange selects a sub-range of an object. A zero-value Length means
// "read to the end of the object".
type ByteRange struct {
	Offset int64
	Length int64
}

// Metadata describes an object's out-of-band attributes.
type Metadata struct {
	TotalSize int64
}

// ObjectStore is the collaborator contract tables and block reads are built
// on (spec §4.5, §6.1). Implementations must return exactly the requested
// length from Read/Readv or fail with a ShortReadError (hummock/herrors);
// deleting an object that does not exist is a success, not an error.
type ObjectStore interface {
	// Upload writes data to path. Overwriting an existing object is allowed.
	Upload(ctx context.Context, path string, data []byte) error

	// Read returns exactly the bytes in r, or the whole object if r is nil.
	Read(ctx context.Context, path string, r *ByteRange) ([]byte, error)

	// Readv is semantically equivalent to issuing Read for each range in
	// ranges, but implementations may parallelise or batch the I/O.
	Readv(ctx context.Context, path string, ranges []ByteRange) ([][]byte, error)

	// Metadata reports the object's size.
	Metadata(ctx context.Context, path string) (Metadata, error)

	// Delete removes path. Deleting a non-existent object succeeds.
	Delete(ctx context.Context, path string) error
}
