// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package worker implements cmd/compute's per-stream-processing-worker
// driver (spec §4.2): the handler logic an inbound send_barrier RPC and an
// actor's local collect report would each call into. The RPC transport
// itself is a Non-goal; Worker is what a generated gRPC service would sit
// in front of.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/erigontech/hummock/barrier/state"
)

// Worker owns one ManagedState and serialises access to it: the state
// machine itself assumes a single owning goroutine (§5), but a real
// compute node drives it from at least two directions — an inbound
// send_barrier call and however many local actors report completion — so
// Worker's mutex stands in for that single-owner message loop.
type Worker struct {
	mu     sync.Mutex
	ms     *state.ManagedState
	logger *zap.Logger
}

// New constructs a Worker with a fresh ManagedState in Pending.
func New(logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{ms: state.NewManagedState(logger), logger: logger}
}

// InjectBarrier handles an inbound send_barrier call: it issues b to
// targets and blocks until every target has been collected (returning nil)
// or ctx is cancelled (returning ctx.Err()). The notifier channel is
// created here and never closed, so the dropped-receiver path of
// ManagedState does not arise for barriers injected through Worker.
func (w *Worker) InjectBarrier(ctx context.Context, b state.Barrier, targets []state.ActorID) error {
	notifier := make(chan struct{}, 1)

	w.mu.Lock()
	w.ms.Issue(b, targets, notifier)
	w.mu.Unlock()

	select {
	case <-notifier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Collect reports that actor a has forwarded barrier b downstream, per the
// local actor runtime's collect callback (§4.2).
func (w *Worker) Collect(a state.ActorID, b state.Barrier) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ms.Collect(a, b)
}

// LastEpoch reports the most recently fully-collected epoch, if any.
func (w *Worker) LastEpoch() (uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ms.LastEpoch()
}
