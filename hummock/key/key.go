// Copyright 2024 The Hummock Authors
// This file is part of hummock.
//
// hummock is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// hummock is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with hummock. If not, see <http://www.gnu.org/licenses/>.

// Package key implements the versioned key total order of spec §3.1: the
// concatenation user_key ⊕ ts, ordered by user_key ascending and, for equal
// user keys, ts descending. Every ordered structure in hummock (immutable
// runs, tables, the merge iterator) uses Compare from this package.
package key

import (
	"bytes"
	"encoding/binary"
)

// TSLen is the width in bytes of the encoded timestamp suffix.
const TSLen = 8

// New concatenates userKey and ts into a versioned key. The returned slice
// is freshly allocated; callers may retain it.
func New(userKey []byte, ts uint64) []byte {
	out := make([]byte, len(userKey)+TSLen)
	n := copy(out, userKey)
	binary.BigEndian.PutUint64(out[n:], ts)
	return out
}

// Split decomposes a versioned key into its user key and timestamp. It
// panics if key is shorter than TSLen, which indicates a caller bug (an
// undecoded or corrupt key should never reach this far — decoding errors are
// raised earlier, at the point bytes cross a store boundary).
func Split(k []byte) (userKey []byte, ts uint64) {
	n := len(k) - TSLen
	return k[:n], binary.BigEndian.Uint64(k[n:])
}

// UserKey returns the user-key prefix of a versioned key.
func UserKey(k []byte) []byte {
	u, _ := Split(k)
	return u
}

// TS returns the timestamp suffix of a versioned key.
func TS(k []byte) uint64 {
	_, ts := Split(k)
	return ts
}

// Compare implements the §3.1 total order: user_key ascending, ts
// descending on ties. It is the single comparator every ordered structure
// in this module must use.
func Compare(a, b []byte) int {
	aUser, aTS := Split(a)
	bUser, bTS := Split(b)
	if c := bytes.Compare(aUser, bUser); c != 0 {
		return c
	}
	switch {
	case aTS > bTS:
		return -1
	case aTS < bTS:
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts strictly before b under Compare.
func Less(a, b []byte) bool {
	return Compare(a, b) < 0
}
