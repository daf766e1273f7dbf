// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package exchange

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Endpoint is the per-compute-node exchange-streaming server (§6.4): it
// hands out one Stream per (up, down) fragment pair, opening it on first
// reference and reusing it for subsequent requests from either side of the
// pair. The RPC transport that would normally drive OpenStream from an
// inbound gRPC call is a Non-goal; Endpoint is the handler logic such a
// server would call into.
type Endpoint struct {
	capacity int
	limiter  *rate.Limiter
	logger   *zap.Logger

	mu      sync.Mutex
	streams map[string]*Stream
}

// NewEndpoint constructs an Endpoint. capacity <= 0 uses DefaultCapacity.
// ratePerSec <= 0 disables rate limiting.
func NewEndpoint(capacity int, ratePerSec float64, logger *zap.Logger) *Endpoint {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), capacity)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Endpoint{capacity: capacity, limiter: limiter, logger: logger, streams: make(map[string]*Stream)}
}

func streamKey(up, down uint32) string {
	return fmt.Sprintf("%d->%d", up, down)
}

// OpenStream returns the Stream for req's fragment pair, opening it if this
// is the first reference.
func (e *Endpoint) OpenStream(req StreamRequest) (*Stream, error) {
	key := streamKey(req.UpFragmentID, req.DownFragmentID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.streams[key]; ok {
		return s, nil
	}
	s, err := Open(req, e.capacity, e.limiter, e.logger)
	if err != nil {
		return nil, err
	}
	e.streams[key] = s
	return s, nil
}

// CloseStream closes and forgets the stream for the given fragment pair, if
// one is open.
func (e *Endpoint) CloseStream(up, down uint32) {
	key := streamKey(up, down)

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.streams[key]; ok {
		s.Close()
		delete(e.streams, key)
	}
}

// StreamCount reports how many fragment pairs currently have an open
// stream, for diagnostics.
func (e *Endpoint) StreamCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.streams)
}
