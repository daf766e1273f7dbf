// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package table

import (
	"context"

	"github.com/erigontech/hummock/hummock/value"
)

// TableIterator provides ordered iteration over all blocks of one table,
// with seek by key (§4.1.2). It holds at most one block iterator at a time,
// loading the next block lazily as iteration crosses a block boundary.
type TableIterator struct {
	table    *Table
	blockIdx int
	block    *blockIterator
}

// NewTableIterator returns a TableIterator over t, unpositioned until
// Rewind or Seek is called.
func NewTableIterator(t *Table) *TableIterator {
	return &TableIterator{table: t, blockIdx: t.BlockCount()}
}

func (it *TableIterator) loadAndRewind(ctx context.Context, idx int) error {
	b, err := it.table.loadBlock(ctx, idx)
	if err != nil {
		return err
	}
	if err := b.Rewind(ctx); err != nil {
		return err
	}
	it.blockIdx, it.block = idx, b
	return nil
}

func (it *TableIterator) invalidate() {
	it.blockIdx, it.block = it.table.BlockCount(), nil
}

// Rewind seeks block 0 and positions at its first entry.
func (it *TableIterator) Rewind(ctx context.Context) error {
	if it.table.BlockCount() == 0 {
		it.invalidate()
		return nil
	}
	return it.loadAndRewind(ctx, 0)
}

// Seek chooses the last block whose smallest_key is <= k (floored at 0),
// seeks inside it for the first key >= k, and rolls forward to the next
// block's first entry if that block holds no such key (its own keys are
// all < k's user key is impossible by construction, but its last key may
// still be < k when k falls in the gap before the next block's range).
func (it *TableIterator) Seek(ctx context.Context, k []byte) error {
	if it.table.BlockCount() == 0 {
		it.invalidate()
		return nil
	}
	idx := it.table.blockForKey(k)
	b, err := it.table.loadBlock(ctx, idx)
	if err != nil {
		return err
	}
	if err := b.Seek(ctx, k); err != nil {
		return err
	}
	if !b.Valid() {
		if idx+1 >= it.table.BlockCount() {
			it.invalidate()
			return nil
		}
		return it.loadAndRewind(ctx, idx+1)
	}
	it.blockIdx, it.block = idx, b
	return nil
}

// Next advances within the current block, or loads the next block and
// positions at its first entry when the current one is exhausted.
func (it *TableIterator) Next(ctx context.Context) error {
	if it.block == nil || !it.block.Valid() {
		panic("hummock: Next called on invalid TableIterator")
	}
	if err := it.block.Next(ctx); err != nil {
		return err
	}
	if it.block.Valid() {
		return nil
	}
	if it.blockIdx+1 >= it.table.BlockCount() {
		it.invalidate()
		return nil
	}
	return it.loadAndRewind(ctx, it.blockIdx+1)
}

func (it *TableIterator) Key() []byte        { return it.block.Key() }
func (it *TableIterator) Value() value.Value { return it.block.Value() }
func (it *TableIterator) Valid() bool        { return it.block != nil && it.block.Valid() }
