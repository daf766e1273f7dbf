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

// Package memtable implements the immutable sorted run (spec §3.3): a
// shared, read-only, in-memory batch of (key, value) pairs produced by
// freezing a mutable memtable. Runs are safe for any number of concurrent
// iterators; there is no interior mutability once a Run is constructed.
package memtable

import (
	"sort"
	"sync"

	"github.com/erigontech/hummock/hummock/key"
	"github.com/erigontech/hummock/hummock/value"
)

// Item is one (versioned key, value) pair stored in a Run.
type Item struct {
	Key   []byte
	Value value.Value
}

// Run is an immutable, shared-ownership sequence of (key, value) pairs,
// sorted strictly ascending by §3.1 (invariant I1). It is fixed at
// construction (I2): there is no method that mutates a Run after New
// returns. Go's garbage collector plays the role the teacher's
// reference-counted handle plays in the original: a Run (and the slice it
// wraps) is kept alive for exactly as long as any iterator or table-build
// task still references it, with no explicit refcounting required.
type Run struct {
	items []Item
}

// New builds a Run from sortedItems, which must already be sorted strictly
// ascending by §3.1 (callers freezing a mutable memtable are responsible for
// the sort; New does not re-sort or validate, matching the teacher's
// `ImmutableMemtable::new` which takes ownership of an already-sorted
// vector). New takes ownership of sortedItems: callers must not mutate it
// afterwards.
func New(sortedItems []Item) *Run {
	return &Run{items: sortedItems}
}

// Len reports the number of items in the run.
func (r *Run) Len() int { return len(r.items) }

// Empty reports whether the run holds no items.
func (r *Run) Empty() bool { return len(r.items) == 0 }

// StartUserKey returns the user-key component of the first item's key. It
// panics if the run is empty (I3: first/last are only defined for a
// non-empty run — callers must check Empty first, matching the teacher's
// unwrap-on-empty contract).
func (r *Run) StartUserKey() []byte {
	return key.UserKey(r.items[0].Key)
}

// EndUserKey returns the user-key component of the last item's key.
func (r *Run) EndUserKey() []byte {
	return key.UserKey(r.items[len(r.items)-1].Key)
}

// search returns the index of the first item whose key is >= target under
// §3.1, i.e. sort.Search's "first false predicate" insertion point.
func (r *Run) search(target []byte) int {
	return sort.Search(len(r.items), func(i int) bool {
		return key.Compare(r.items[i].Key, target) >= 0
	})
}

// Builder accumulates items for a mutable memtable and freezes them into a
// Run. It is the minimal "collaborator" memtable spec.md treats as out of
// core scope but that a runnable module needs in order to produce Runs to
// exercise §4.1.1 against. Builder is safe for concurrent Put calls.
type Builder struct {
	mu    sync.Mutex
	items map[string]Item // keyed by raw versioned key bytes
}

// NewBuilder constructs an empty Builder.
func NewBuilder() *Builder {
	return &Builder{items: make(map[string]Item)}
}

// Put inserts or overwrites the value at k.
func (b *Builder) Put(k []byte, v value.Value) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[string(k)] = Item{Key: append([]byte(nil), k...), Value: v}
}

// Freeze sorts the accumulated items by §3.1 and returns an immutable Run.
// The Builder is left usable for further Puts into a fresh generation; the
// returned Run does not alias the Builder's internal map.
func (b *Builder) Freeze() *Run {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := make([]Item, 0, len(b.items))
	for _, it := range b.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		return key.Compare(items[i].Key, items[j].Key) < 0
	})
	b.items = make(map[string]Item)
	return New(items)
}
