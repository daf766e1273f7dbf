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

// Package iter defines the ordered iterator contract shared by immutable
// runs, tables, and the merge iterator (spec §4.1).
package iter

import (
	"context"

	"github.com/erigontech/hummock/hummock/value"
)

// Iterator is the contract every ordered source in hummock implements.
// Rewind, Seek, and Next may suspend on I/O and take a context for
// cancellation; Key, Value, and Valid never suspend and must only be called
// when Valid reports true (except Valid itself, which is always safe).
type Iterator interface {
	// Rewind positions the iterator at its first element: smallest key for
	// a forward iterator, largest key for a backward one.
	Rewind(ctx context.Context) error

	// Seek positions the iterator at the first element whose key is >= k
	// under the §3.1 comparator. Callers running a backward iterator must
	// account for the open question in spec §9: Seek here always uses
	// forward semantics regardless of the iterator's own direction.
	Seek(ctx context.Context, k []byte) error

	// Next advances one element. Calling Next when Valid is false is a
	// caller bug; implementations may panic.
	Next(ctx context.Context) error

	// Key returns the current element's versioned key. Only valid when
	// Valid() is true. The returned slice may alias internal storage.
	Key() []byte

	// Value returns the current element's value. Only valid when Valid()
	// is true. The returned Value's Payload may alias internal storage.
	Value() value.Value

	// Valid reports whether the iterator currently rests on an element.
	Valid() bool
}
