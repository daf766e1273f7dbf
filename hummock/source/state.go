// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package source implements the per-shard resumption record (spec §3.5,
// §4.4, §6.2): a stable identifier plus an opaque, restart-resilient
// encoding of progress.
package source

import (
	"fmt"
	"unicode/utf8"

	"github.com/erigontech/hummock/hummock/herrors"
)

// State is one shard's resumable position within a stream source.
//
// SequenceNumber is carried as an opaque string, not parsed as a bounded
// integer: upstream sources (e.g. Kinesis) hand out sequence numbers that
// can exceed a 64-bit range, and this package has no business imposing a
// narrower domain than the source it is resuming.
type State struct {
	StreamName     string
	ShardID        string
	SequenceNumber string
}

// New constructs a State at the given sequence number.
func New(streamName, shardID, sequenceNumber string) State {
	return State{StreamName: streamName, ShardID: shardID, SequenceNumber: sequenceNumber}
}

// Identifier returns the stable, restart-surviving key for this shard
// (§3.5, §6.2). Stream and shard identifiers must not contain '|'; the
// format performs no escaping.
func (s State) Identifier() string {
	return fmt.Sprintf("%s|%s", s.StreamName, s.ShardID)
}

// Encode returns the persisted form of the current progress: the raw UTF-8
// bytes of SequenceNumber, unconstrained beyond that.
func (s State) Encode() []byte {
	return []byte(s.SequenceNumber)
}

// Decode reconstructs a State from identifier (as produced by Identifier)
// and a previously Encoded payload, recovering the original stream name and
// shard id and installing the decoded sequence number. It rejects
// non-UTF-8 payloads and malformed identifiers with a decoding error,
// matching §4.4, and never alters stream_name/shard_id beyond what the
// identifier itself encodes. The sequence number itself is not otherwise
// validated: it is an opaque token from the upstream source.
func Decode(identifier string, payload []byte) (State, error) {
	streamName, shardID, err := splitIdentifier(identifier)
	if err != nil {
		return State{}, err
	}
	if !utf8.Valid(payload) {
		return State{}, herrors.Decoding("source: non-UTF-8 sequence number payload for %q", identifier)
	}
	return State{StreamName: streamName, ShardID: shardID, SequenceNumber: string(payload)}, nil
}

func splitIdentifier(identifier string) (streamName, shardID string, err error) {
	for i := 0; i < len(identifier); i++ {
		if identifier[i] == '|' {
			return identifier[:i], identifier[i+1:], nil
		}
	}
	return "", "", herrors.Decoding("source: malformed identifier %q (missing '|')", identifier)
}
