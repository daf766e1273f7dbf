// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package table

import (
	"context"
	"sort"

	"github.com/erigontech/hummock/hummock/herrors"
	"github.com/erigontech/hummock/hummock/key"
	"github.com/erigontech/hummock/hummock/value"
)

// blockIterator is a forward iterator over one decoded block (§6.1's
// "collaborator" block contract: seek(key, Origin) and seek_to_first). The
// table iterator composes one blockIterator at a time.
type blockIterator struct {
	block *decodedBlock

	offset int // entriesEnd once exhausted/invalid
	next   int
	key    []byte
	val    []byte
}

func newBlockIterator(b *decodedBlock) *blockIterator {
	return &blockIterator{block: b, offset: b.entriesEnd}
}

func (it *blockIterator) Valid() bool {
	return it.offset < it.block.entriesEnd
}

func (it *blockIterator) Key() []byte { return it.key }

// Value decodes the entry's value tag. The iterator contract (§4.1) gives
// Value no error return; a decode failure here means the table bytes
// themselves are corrupt, which is a fatal condition the caller cannot
// usefully continue past, so it panics rather than returning a zero value.
func (it *blockIterator) Value() value.Value {
	v, err := value.Decode(it.val)
	if err != nil {
		panic(err)
	}
	return v
}

func (it *blockIterator) load(offset int, prevKey []byte) error {
	if offset >= it.block.entriesEnd {
		it.offset = it.block.entriesEnd
		return nil
	}
	k, v, next, err := it.block.readEntryAt(offset, prevKey)
	if err != nil {
		return err
	}
	it.offset, it.key, it.val, it.next = offset, k, v, next
	return nil
}

// Rewind positions at the block's first entry.
func (it *blockIterator) Rewind(context.Context) error {
	if it.block.numRestarts == 0 {
		it.offset = it.block.entriesEnd
		return nil
	}
	return it.load(0, nil)
}

// Seek positions at the first entry whose key is >= target (§3.1), using
// the restart-point index to find a starting offset before scanning
// forward, mirroring the pebble block-seek algorithm this format is
// grounded on.
func (it *blockIterator) Seek(ctx context.Context, target []byte) error {
	n := it.block.numRestarts
	if n == 0 {
		it.offset = it.block.entriesEnd
		return nil
	}

	var searchErr error
	idx := sort.Search(n, func(j int) bool {
		rk, err := it.block.restartKey(j)
		if err != nil {
			searchErr = err
			return true
		}
		return key.Compare(rk, target) > 0
	})
	if searchErr != nil {
		return searchErr
	}

	restartIdx := 0
	if idx > 0 {
		restartIdx = idx - 1
	}
	if err := it.load(int(it.block.restarts[restartIdx]), nil); err != nil {
		return err
	}
	for it.Valid() && key.Compare(it.key, target) < 0 {
		if err := it.Next(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (it *blockIterator) Next(context.Context) error {
	if !it.Valid() {
		panic("hummock: Next called on invalid blockIterator")
	}
	return it.load(it.next, it.key)
}

// decodeBlockAt is a convenience used by the table iterator to turn raw
// block bytes (post object-store fetch, pre or post decompression) into a
// positioned iterator.
func decodeBlockAt(raw []byte) (*blockIterator, error) {
	db, err := decodeBlock(raw)
	if err != nil {
		return nil, herrors.Decoding("table: %v", err)
	}
	return newBlockIterator(db), nil
}
