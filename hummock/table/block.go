// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package table

import (
	"encoding/binary"

	"github.com/erigontech/hummock/hummock/herrors"
	"github.com/erigontech/hummock/hummock/value"
)

// defaultRestartInterval mirrors the restart-point cadence pebble-style
// block formats use: a delta-encoded key every entry, with a full key
// written out every defaultRestartInterval entries so seeks don't have to
// replay the whole block to reconstruct a key.
const defaultRestartInterval = 16

// blockBuilder accumulates one block's worth of (versioned key, value)
// pairs in strictly ascending key order (I5) and encodes them with
// restart-point prefix compression: entries between restart points store
// only the suffix that differs from the previous key.
type blockBuilder struct {
	restartInterval int
	buf             []byte
	restarts        []uint32
	count           int
	lastKey         []byte
}

func newBlockBuilder(restartInterval int) *blockBuilder {
	if restartInterval <= 0 {
		restartInterval = defaultRestartInterval
	}
	return &blockBuilder{restartInterval: restartInterval}
}

func (b *blockBuilder) empty() bool { return b.count == 0 }

// add appends one entry. Callers must present keys in strictly ascending
// order (I5); add does not re-validate.
func (b *blockBuilder) add(key []byte, v value.Value) {
	var shared int
	if b.count%b.restartInterval == 0 {
		b.restarts = append(b.restarts, uint32(len(b.buf)))
	} else {
		shared = sharedPrefixLen(b.lastKey, key)
	}
	unshared := key[shared:]
	encodedVal := value.Encode(v)

	b.buf = binary.AppendUvarint(b.buf, uint64(shared))
	b.buf = binary.AppendUvarint(b.buf, uint64(len(unshared)))
	b.buf = binary.AppendUvarint(b.buf, uint64(len(encodedVal)))
	b.buf = append(b.buf, unshared...)
	b.buf = append(b.buf, encodedVal...)

	b.lastKey = append(b.lastKey[:0], key...)
	b.count++
}

// finish returns the encoded block: entries, followed by each restart
// point's absolute offset (uint32 little-endian), followed by the restart
// count (uint32 little-endian).
func (b *blockBuilder) finish() []byte {
	out := append([]byte(nil), b.buf...)
	for _, r := range b.restarts {
		out = binary.LittleEndian.AppendUint32(out, r)
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(b.restarts)))
	return out
}

func sharedPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// decodedBlock is a parsed view over an encoded block's bytes, shared by
// every blockIterator positioned within it.
type decodedBlock struct {
	data        []byte
	restarts    []uint32
	numRestarts int
	entriesEnd  int // offset where the restart-offset table begins
}

func decodeBlock(raw []byte) (*decodedBlock, error) {
	if len(raw) < 4 {
		return nil, herrors.Decoding("table: block too small (%d bytes)", len(raw))
	}
	numRestarts := int(binary.LittleEndian.Uint32(raw[len(raw)-4:]))
	footerLen := 4 * (1 + numRestarts)
	if numRestarts < 0 || footerLen > len(raw) {
		return nil, herrors.Decoding("table: block has invalid restart count %d", numRestarts)
	}
	entriesEnd := len(raw) - footerLen
	restarts := make([]uint32, numRestarts)
	for i := 0; i < numRestarts; i++ {
		restarts[i] = binary.LittleEndian.Uint32(raw[entriesEnd+4*i:])
	}
	return &decodedBlock{data: raw, restarts: restarts, numRestarts: numRestarts, entriesEnd: entriesEnd}, nil
}

// readEntryAt decodes the entry starting at offset, given the key that was
// active just before it (for shared-prefix reconstruction). It returns the
// entry's key, value bytes, and the offset of the next entry.
func (d *decodedBlock) readEntryAt(offset int, prevKey []byte) (key []byte, val []byte, next int, err error) {
	shared, n1, ok := decodeUvarint(d.data[offset:d.entriesEnd])
	if !ok {
		return nil, nil, 0, herrors.Decoding("table: corrupt entry at offset %d", offset)
	}
	unsharedLen, n2, ok := decodeUvarint(d.data[offset+n1:d.entriesEnd])
	if !ok {
		return nil, nil, 0, herrors.Decoding("table: corrupt entry at offset %d", offset)
	}
	valLen, n3, ok := decodeUvarint(d.data[offset+n1+n2 : d.entriesEnd])
	if !ok {
		return nil, nil, 0, herrors.Decoding("table: corrupt entry at offset %d", offset)
	}

	pos := offset + n1 + n2 + n3
	if int(shared) > len(prevKey) || pos+int(unsharedLen)+int(valLen) > d.entriesEnd {
		return nil, nil, 0, herrors.Decoding("table: corrupt entry at offset %d", offset)
	}

	key = make([]byte, 0, int(shared)+int(unsharedLen))
	key = append(key, prevKey[:shared]...)
	key = append(key, d.data[pos:pos+int(unsharedLen)]...)
	pos += int(unsharedLen)

	val = d.data[pos : pos+int(valLen)]
	pos += int(valLen)

	return key, val, pos, nil
}

func decodeUvarint(b []byte) (uint64, int, bool) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, 0, false
	}
	return v, n, true
}

// restartKey decodes just the key stored at a restart point (shared is
// always 0 there), used by binary search over restart offsets.
func (d *decodedBlock) restartKey(restartIdx int) ([]byte, error) {
	offset := int(d.restarts[restartIdx])
	key, _, _, err := d.readEntryAt(offset, nil)
	return key, err
}
