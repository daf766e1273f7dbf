// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package table implements the on-disk table format consumed by the
// unified iterator contract (spec §3.4, §4.1.2, §6.1): an ordered sequence
// of blocks plus a meta section of (smallest_key, block_handle) pairs.
package table

import (
	"context"
	"encoding/binary"

	"github.com/google/btree"

	"github.com/erigontech/hummock/hummock/herrors"
	"github.com/erigontech/hummock/hummock/key"
	"github.com/erigontech/hummock/hummock/objstore"
	"github.com/erigontech/hummock/hummock/value"
	"github.com/erigontech/hummock/internal/xmath"
)

// targetBlockSize is the approximate pre-compression size a builder fills a
// block to before starting the next one.
const targetBlockSize = 4 << 10

// BlockHandle locates one block's (possibly compressed) payload within a
// table's data object.
type BlockHandle struct {
	Offset uint64
	Length uint64
}

// BlockMeta describes one block's position in the table's key range (I4,
// I6): SmallestKey is the first (and, by I5, least) key stored in the
// block.
type BlockMeta struct {
	SmallestKey []byte
	Handle      BlockHandle
}

// Table is a persistent, immutable object identified by ID, consisting of
// an ordered sequence of blocks plus the meta list used to resolve which
// block a key falls in (§3.4). Tables are shared-read-only after
// publication: any number of TableIterators may read one concurrently.
type Table struct {
	ID    string
	store objstore.ObjectStore
	metas []BlockMeta
	index *btree.BTreeG[btreeEntry]
}

type btreeEntry struct {
	smallestKey []byte
	blockIdx    int
}

func btreeLess(a, b btreeEntry) bool {
	return key.Compare(a.smallestKey, b.smallestKey) < 0
}

// metaPath is where a table's encoded meta list is stored, alongside its
// data object at ID.
func metaPath(id string) string { return id + ".meta" }

// Open loads a published table's meta list from store and returns a Table
// ready for iteration. It does not fetch any data blocks.
func Open(ctx context.Context, store objstore.ObjectStore, id string) (*Table, error) {
	raw, err := store.Read(ctx, metaPath(id), nil)
	if err != nil {
		return nil, err
	}
	metas, err := decodeMetaList(raw)
	if err != nil {
		return nil, err
	}
	return newTable(store, id, metas), nil
}

func newTable(store objstore.ObjectStore, id string, metas []BlockMeta) *Table {
	idx := btree.NewG(32, btreeLess)
	for i, m := range metas {
		idx.ReplaceOrInsert(btreeEntry{smallestKey: m.SmallestKey, blockIdx: i})
	}
	return &Table{ID: id, store: store, metas: metas, index: idx}
}

// BlockCount reports the number of blocks in the table.
func (t *Table) BlockCount() int { return len(t.metas) }

// blockForKey implements the §4.1.2 block-selection rule: the last block
// whose smallest_key is <= k, floored at block 0.
func (t *Table) blockForKey(k []byte) int {
	found := -1
	t.index.DescendLessOrEqual(btreeEntry{smallestKey: k}, func(e btreeEntry) bool {
		found = e.blockIdx
		return false
	})
	if found < 0 {
		return 0
	}
	return found
}

// loadBlock fetches and decodes block i's raw bytes into an iterator.
func (t *Table) loadBlock(ctx context.Context, i int) (*blockIterator, error) {
	if i < 0 || i >= len(t.metas) {
		return nil, herrors.Decoding("table: block index %d out of range", i)
	}
	h := t.metas[i].Handle
	raw, err := t.store.Read(ctx, t.ID, &objstore.ByteRange{Offset: int64(h.Offset), Length: int64(h.Length)})
	if err != nil {
		return nil, err
	}
	if len(raw) < 1 {
		return nil, herrors.Decoding("table: block %d payload empty", i)
	}
	codec, payload := raw[0], raw[1:]
	comp, err := compressorForCodec(codec)
	if err != nil {
		return nil, err
	}
	decompressed, err := comp.Decompress(codec, payload)
	if err != nil {
		return nil, err
	}
	return decodeBlockAt(decompressed)
}

// encodeMetaList serialises metas as a varint entry count followed by a
// sequence of (varint keyLen, key bytes, uint64 offset, uint64 length).
func encodeMetaList(metas []BlockMeta) []byte {
	var out []byte
	out = binary.AppendUvarint(out, uint64(len(metas)))
	for _, m := range metas {
		out = binary.AppendUvarint(out, uint64(len(m.SmallestKey)))
		out = append(out, m.SmallestKey...)
		out = binary.LittleEndian.AppendUint64(out, m.Handle.Offset)
		out = binary.LittleEndian.AppendUint64(out, m.Handle.Length)
	}
	return out
}

func decodeMetaList(raw []byte) ([]BlockMeta, error) {
	n, off := binary.Uvarint(raw)
	if off <= 0 {
		return nil, herrors.Decoding("table: corrupt meta list header")
	}
	pos := off
	metas := make([]BlockMeta, 0, n)
	for i := uint64(0); i < n; i++ {
		klen, o := binary.Uvarint(raw[pos:])
		if o <= 0 {
			return nil, herrors.Decoding("table: corrupt meta entry %d", i)
		}
		pos += o
		if pos+int(klen)+16 > len(raw) {
			return nil, herrors.Decoding("table: truncated meta entry %d", i)
		}
		smallest := append([]byte(nil), raw[pos:pos+int(klen)]...)
		pos += int(klen)
		offset := binary.LittleEndian.Uint64(raw[pos:])
		pos += 8
		length := binary.LittleEndian.Uint64(raw[pos:])
		pos += 8
		metas = append(metas, BlockMeta{SmallestKey: smallest, Handle: BlockHandle{Offset: offset, Length: length}})
	}
	return metas, nil
}

// Builder assembles a new Table from (key, value) pairs presented in
// strictly ascending order (I1, I5), splitting them into blocks of roughly
// targetBlockSize pre-compression bytes, and publishes the result to an
// ObjectStore.
type Builder struct {
	id         string
	store      objstore.ObjectStore
	compressor BlockCompressor

	cur     *blockBuilder
	dataBuf []byte
	metas   []BlockMeta
	lastKey []byte
	started bool
}

// NewBuilder starts a new table builder publishing to id. A nil compressor
// defaults to NoCompression. expectedSizeHint is an optional (0 if
// unknown) estimate of the table's final pre-compression byte size, used
// only to preallocate the block-meta slice to its expected length.
func NewBuilder(id string, store objstore.ObjectStore, compressor BlockCompressor, expectedSizeHint int) *Builder {
	if compressor == nil {
		compressor = NoCompression
	}
	b := &Builder{id: id, store: store, compressor: compressor, cur: newBlockBuilder(defaultRestartInterval)}
	if expectedSizeHint > 0 {
		b.metas = make([]BlockMeta, 0, xmath.CeilDiv(expectedSizeHint, targetBlockSize))
	}
	return b
}

// Add appends one entry. Keys must be presented in strictly ascending order
// (I1); Add returns a decoding error if that invariant is violated, since a
// table built out of order would break every downstream seek.
func (b *Builder) Add(k []byte, v value.Value) error {
	if b.started && key.Compare(k, b.lastKey) <= 0 {
		return herrors.Decoding("table: keys must be strictly ascending, got %x after %x", k, b.lastKey)
	}
	if b.cur.empty() {
		b.metas = append(b.metas, BlockMeta{SmallestKey: append([]byte(nil), k...)})
	}
	b.cur.add(k, v)
	b.lastKey = append([]byte(nil), k...)
	b.started = true

	if len(b.cur.buf) >= targetBlockSize {
		b.flushBlock()
	}
	return nil
}

func (b *Builder) flushBlock() {
	if b.cur.empty() {
		return
	}
	raw := b.cur.finish()
	payload := b.compressor.Compress(raw)
	offset := uint64(len(b.dataBuf))
	b.dataBuf = append(b.dataBuf, b.compressor.ID())
	b.dataBuf = append(b.dataBuf, payload...)
	length := uint64(len(b.dataBuf)) - offset

	last := len(b.metas) - 1
	b.metas[last].Handle = BlockHandle{Offset: offset, Length: length}

	b.cur = newBlockBuilder(defaultRestartInterval)
}

// Finish flushes any pending block, uploads the data and meta objects, and
// returns a Table ready for iteration.
func (b *Builder) Finish(ctx context.Context) (*Table, error) {
	b.flushBlock()

	if err := b.store.Upload(ctx, b.id, b.dataBuf); err != nil {
		return nil, err
	}
	if err := b.store.Upload(ctx, metaPath(b.id), encodeMetaList(b.metas)); err != nil {
		return nil, err
	}
	return newTable(b.store, b.id, b.metas), nil
}
