// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package exchange implements the bidirectional exchange streaming RPC
// (spec §6.4): a bounded-channel pipe between an upstream and downstream
// fragment, with a full channel suspending the sender (§5 backpressure).
package exchange

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/erigontech/hummock/hummock/herrors"
)

// DefaultCapacity is the suggested bounded-channel capacity (§5).
const DefaultCapacity = 1024

// Record is one exchanged message. Its wire encoding is a collaborator
// concern out of core scope (§1); the core only moves opaque payloads.
type Record any

// StreamRequest names the fragment pair a caller wants to exchange records
// between.
type StreamRequest struct {
	UpFragmentID   uint32
	DownFragmentID uint32
	PeerAddr       string
}

// Stream is one open exchange pipe. The sending side calls Send for each
// record; the receiving side calls Recv until it returns ok=false, which
// happens once the channel is closed (the producer is done, or the
// receiver side dropped and the forwarding task cleanly terminated).
type Stream struct {
	up, down uint32
	peerAddr string
	ch       chan Record
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// Open validates req and returns a new Stream with the given channel
// capacity and an optional rate limiter (nil disables rate limiting). A
// missing peer address fails the RPC as "connection unestablished" (§6.4).
func Open(req StreamRequest, capacity int, limiter *rate.Limiter, logger *zap.Logger) (*Stream, error) {
	if req.PeerAddr == "" {
		return nil, fmt.Errorf("%w: up=%d down=%d", herrors.ErrConnectionUnestablished, req.UpFragmentID, req.DownFragmentID)
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("exchange stream opened",
		zap.Uint32("up_fragment_id", req.UpFragmentID),
		zap.Uint32("down_fragment_id", req.DownFragmentID),
		zap.String("peer_addr", req.PeerAddr),
	)
	return &Stream{
		up:       req.UpFragmentID,
		down:     req.DownFragmentID,
		peerAddr: req.PeerAddr,
		ch:       make(chan Record, capacity),
		limiter:  limiter,
		logger:   logger,
	}, nil
}

// Send enqueues rec, suspending the caller if the channel is full (§5) or
// the rate limiter has no tokens available. It returns ctx.Err() if ctx is
// cancelled while waiting.
func (s *Stream) Send(ctx context.Context, rec Record) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	select {
	case s.ch <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv blocks until a record is available, the channel is closed (ok is
// false), or ctx is cancelled.
func (s *Stream) Recv(ctx context.Context) (rec Record, ok bool, err error) {
	select {
	case rec, ok = <-s.ch:
		return rec, ok, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close closes the channel, causing the next Recv to observe ok=false and
// cleanly terminating the forwarding task (§5).
func (s *Stream) Close() {
	close(s.ch)
}
