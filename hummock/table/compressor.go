// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package table

import (
	"github.com/klauspost/compress/s2"

	"github.com/erigontech/hummock/hummock/herrors"
)

// BlockCompressor codes a block's raw payload for storage. The table format
// reserves one byte per block to name the codec that encoded it, so readers
// never need out-of-band configuration to decompress a block they fetch.
type BlockCompressor interface {
	// ID is the on-disk codec tag written ahead of a compressed block.
	ID() byte
	Compress(raw []byte) []byte
	Decompress(codec byte, payload []byte) ([]byte, error)
}

const (
	codecNone byte = 0
	codecS2   byte = 1
)

// noneCompressor stores blocks uncompressed; used for small test tables and
// as the fallback decoder for codecNone regardless of which BlockCompressor
// built the table.
type noneCompressor struct{}

func (noneCompressor) ID() byte                { return codecNone }
func (noneCompressor) Compress(raw []byte) []byte { return raw }
func (noneCompressor) Decompress(codec byte, payload []byte) ([]byte, error) {
	if codec != codecNone {
		return nil, herrors.Decoding("table: noneCompressor cannot decode codec %d", codec)
	}
	return payload, nil
}

// s2Compressor compresses block payloads with klauspost/compress/s2, a
// Snappy-compatible codec tuned for throughput over ratio — the right
// tradeoff for hot-path block reads, where the object store round trip
// already dominates decode cost.
type s2Compressor struct{}

func (s2Compressor) ID() byte { return codecS2 }

func (s2Compressor) Compress(raw []byte) []byte {
	return s2.Encode(nil, raw)
}

func (s2Compressor) Decompress(codec byte, payload []byte) ([]byte, error) {
	switch codec {
	case codecNone:
		return payload, nil
	case codecS2:
		out, err := s2.Decode(nil, payload)
		if err != nil {
			return nil, herrors.Decoding("table: s2 decompress: %v", err)
		}
		return out, nil
	default:
		return nil, herrors.Decoding("table: s2Compressor cannot decode codec %d", codec)
	}
}

// NoCompression stores blocks uncompressed on disk.
var NoCompression BlockCompressor = noneCompressor{}

// S2Compression compresses blocks with s2 before writing them.
var S2Compression BlockCompressor = s2Compressor{}

// compressorForCodec resolves the codec tag read back from disk to a
// decoder, independent of which BlockCompressor built the table.
func compressorForCodec(codec byte) (BlockCompressor, error) {
	switch codec {
	case codecNone:
		return NoCompression, nil
	case codecS2:
		return S2Compression, nil
	default:
		return nil, herrors.Decoding("table: unknown block codec %d", codec)
	}
}
