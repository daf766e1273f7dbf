// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package memtable

import (
	"context"

	"github.com/erigontech/hummock/hummock/value"
)

// direction fixes an iterator's traversal order at construction, the Go
// realization of the teacher-adjacent "direction as a const generic"
// pattern (spec §9): one RunIterator type carries the direction as a field
// that is set by its constructor, never changed afterwards, and checked
// when translating idx into a slice index.
type direction int

const (
	forward direction = iota
	backward
)

// RunIterator walks a Run's items in one fixed direction (§4.1.1). The
// exposed index into the backing slice is idx (forward) or len-idx-1
// (backward); idx itself always counts positions from the iterator's own
// start, matching the teacher's current_idx bookkeeping.
type RunIterator struct {
	run *Run
	dir direction
	idx int
}

// Iterator returns a forward RunIterator over r (smallest key first).
func (r *Run) Iterator() *RunIterator {
	return &RunIterator{run: r, dir: forward, idx: r.Len()}
}

// ReverseIterator returns a backward RunIterator over r (largest key
// first). Per the open question in spec §9, Seek on a backward iterator
// still uses forward (key >= target) semantics; reversing the query is the
// caller's responsibility.
func (r *Run) ReverseIterator() *RunIterator {
	return &RunIterator{run: r, dir: backward, idx: r.Len()}
}

func (it *RunIterator) slot() int {
	if it.dir == forward {
		return it.idx
	}
	return it.run.Len() - it.idx - 1
}

func (it *RunIterator) Rewind(context.Context) error {
	it.idx = 0
	return nil
}

// Seek positions at the first index i (in backing-slice order) whose key is
// >= target under §3.1; on an exact match it lands exactly on that element
// (spec P2). Binary search always runs over the forward index space, then
// is translated into the iterator's own idx per its direction.
func (it *RunIterator) Seek(_ context.Context, target []byte) error {
	pos := it.run.search(target) // forward slice index, first key >= target
	if it.dir == forward {
		it.idx = pos
		return nil
	}
	// Backward iterator: idx counts from the end, but Seek still targets
	// the forward insertion point per the documented forward semantics.
	it.idx = it.run.Len() - pos - 1
	if it.idx < 0 {
		it.idx = it.run.Len() // exhausted: no element satisfies key >= target
	}
	return nil
}

func (it *RunIterator) Next(context.Context) error {
	if !it.Valid() {
		panic("hummock: Next called on invalid RunIterator")
	}
	it.idx++
	return nil
}

func (it *RunIterator) Valid() bool {
	return it.idx >= 0 && it.idx < it.run.Len()
}

func (it *RunIterator) Key() []byte {
	return it.run.items[it.slot()].Key
}

func (it *RunIterator) Value() value.Value {
	return it.run.items[it.slot()].Value
}
