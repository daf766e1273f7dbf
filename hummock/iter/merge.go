// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package iter

import (
	"bytes"
	"container/heap"
	"context"

	"github.com/erigontech/hummock/hummock/key"
	"github.com/erigontech/hummock/hummock/value"
)

// MergeIterator composes any number of Iterators (table iterators,
// immutable-run iterators, or other merge iterators) behind a single
// unified Iterator, per the data-flow description in spec §2: "Readers
// compose a Table Iterator and one or more Immutable-Run iterators behind a
// single unified HummockIterator contract."
//
// Inputs are ordered by the §3.1 comparator, so among entries sharing a
// user key the one with the largest ts surfaces first, whichever input
// holds it. When two inputs hold the identical versioned key, the input
// with the lower index wins (callers construct the slice newest-first).
// Next advances every input past older versions of the user key it just
// left, surfacing only the newest version of any user key.
type MergeIterator struct {
	iters []Iterator
	h     mergeHeap
	cur   int // index into iters of the current winner, or -1
}

type heapItem struct {
	idx int
	key []byte
}

type mergeHeap []heapItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	if c := key.Compare(h[i].key, h[j].key); c != 0 {
		return c < 0
	}
	// Tie on key: prefer the lower source index (newer, by convention).
	return h[i].idx < h[j].idx
}
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(heapItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NewMergeIterator builds a MergeIterator over iters. The slice order
// establishes tie-break priority: earlier entries win key collisions.
func NewMergeIterator(iters []Iterator) *MergeIterator {
	return &MergeIterator{iters: iters, cur: -1}
}

func (m *MergeIterator) Rewind(ctx context.Context) error {
	m.h = m.h[:0]
	for i, it := range m.iters {
		if err := it.Rewind(ctx); err != nil {
			return err
		}
		if it.Valid() {
			heap.Push(&m.h, heapItem{idx: i, key: it.Key()})
		}
	}
	return m.settle(ctx)
}

func (m *MergeIterator) Seek(ctx context.Context, k []byte) error {
	m.h = m.h[:0]
	for i, it := range m.iters {
		if err := it.Seek(ctx, k); err != nil {
			return err
		}
		if it.Valid() {
			heap.Push(&m.h, heapItem{idx: i, key: it.Key()})
		}
	}
	return m.settle(ctx)
}

// settle makes the heap's minimum the current winner without popping it.
// Skipping superseded versions of the winner's user key happens in Next.
func (m *MergeIterator) settle(ctx context.Context) error {
	if len(m.h) == 0 {
		m.cur = -1
		return nil
	}
	top := m.h[0]
	m.cur = top.idx
	return nil
}

func (m *MergeIterator) Next(ctx context.Context) error {
	if m.cur < 0 {
		panic("hummock: Next called on invalid MergeIterator")
	}
	winner := heap.Pop(&m.h).(heapItem)
	winnerUserKey := append([]byte(nil), key.UserKey(winner.key)...)

	// Advance the winner.
	it := m.iters[winner.idx]
	if err := it.Next(ctx); err != nil {
		return err
	}
	if it.Valid() {
		heap.Push(&m.h, heapItem{idx: winner.idx, key: it.Key()})
	}

	// Advance (and discard) any other iterator still sitting on an older
	// version of the same user key, so the merge never surfaces a stale
	// duplicate.
	for len(m.h) > 0 && bytes.Equal(key.UserKey(m.h[0].key), winnerUserKey) {
		dup := heap.Pop(&m.h).(heapItem)
		dit := m.iters[dup.idx]
		if err := dit.Next(ctx); err != nil {
			return err
		}
		if dit.Valid() {
			heap.Push(&m.h, heapItem{idx: dup.idx, key: dit.Key()})
		}
	}

	return m.settle(ctx)
}

func (m *MergeIterator) Key() []byte {
	return m.iters[m.cur].Key()
}

func (m *MergeIterator) Value() value.Value {
	return m.iters[m.cur].Value()
}

func (m *MergeIterator) Valid() bool {
	return m.cur >= 0
}
