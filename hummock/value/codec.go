// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package value

import "github.com/erigontech/hummock/hummock/herrors"

// tag bytes stored as the first byte of an encoded value.
const (
	tagPut    byte = 0
	tagDelete byte = 1
)

// Encode serializes v for on-disk storage: a one-byte kind tag followed by
// the payload (empty for Delete).
func Encode(v Value) []byte {
	switch v.Kind {
	case KindDelete:
		return []byte{tagDelete}
	default:
		out := make([]byte, 1+len(v.Payload))
		out[0] = tagPut
		copy(out[1:], v.Payload)
		return out
	}
}

// Decode parses bytes produced by Encode. The returned Payload aliases b;
// callers follow the same no-retain-past-advance rule as other iterator
// output.
func Decode(b []byte) (Value, error) {
	if len(b) == 0 {
		return Value{}, herrors.Decoding("empty encoded value")
	}
	switch b[0] {
	case tagDelete:
		return Delete(), nil
	case tagPut:
		return Put(b[1:]), nil
	default:
		return Value{}, herrors.Decoding("unknown value tag %d", b[0])
	}
}
