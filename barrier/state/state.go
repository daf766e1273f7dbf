// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package state implements the per-worker barrier state machine (spec
// §4.2): a single epoch's lifecycle from Pending through Stashed/Issued and
// back to Pending, realised as a tagged variant with in-place transitions
// per §9's design note. There is no first-class Rust-style sum type in Go,
// so ManagedState holds one tag plus the fields relevant to that tag, and
// every transition method asserts its own guard before mutating in place.
package state

import (
	"go.uber.org/zap"

	"github.com/erigontech/hummock/hummock/herrors"
)

// Epoch is a pair of monotonically increasing 64-bit values identifying
// consecutive barriers (§3.6).
type Epoch struct {
	Prev uint64
	Curr uint64
}

// ActorID identifies one stream-processing actor.
type ActorID uint32

// Barrier is the unit of work collected and issued by the state machine.
// Command is opaque to the core (§3.6).
type Barrier struct {
	Epoch   Epoch
	Command any
}

// tag names which variant of ManagedState is currently populated.
type tag int

const (
	tagPending tag = iota
	tagStashed
	tagIssued
)

// ManagedState is the per-worker barrier state machine. It must be owned
// by a single worker task and is not safe for concurrent use (§5): all
// cross-task interaction happens by message, not by calling ManagedState
// from multiple goroutines at once.
type ManagedState struct {
	logger *zap.Logger
	tag    tag

	// Pending
	lastEpoch    uint64
	hasLastEpoch bool

	// Stashed / Issued share epoch + collected/remaining sets.
	epoch     uint64
	collected map[ActorID]struct{}
	remaining map[ActorID]struct{}
	notifier  chan struct{}
}

// NewManagedState returns a fresh state machine in Pending{last_epoch:
// none}.
func NewManagedState(logger *zap.Logger) *ManagedState {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagedState{logger: logger, tag: tagPending}
}

// LastEpoch reports the last fully-collected epoch, if the machine is
// Pending and has collected at least one epoch since construction.
func (m *ManagedState) LastEpoch() (uint64, bool) {
	if m.tag != tagPending {
		return 0, false
	}
	return m.lastEpoch, m.hasLastEpoch
}

// Collect handles an actor's report that it has forwarded barrier b. It
// implements the `collect` row of the §4.2 transition table.
func (m *ManagedState) Collect(a ActorID, b Barrier) error {
	switch m.tag {
	case tagPending:
		if m.hasLastEpoch && b.Epoch.Prev != m.lastEpoch {
			return herrors.Protocol("collect: barrier prev_epoch %d does not match last collected epoch %d", b.Epoch.Prev, m.lastEpoch)
		}
		m.tag = tagStashed
		m.epoch = b.Epoch.Curr
		m.collected = map[ActorID]struct{}{a: {}}
		m.remaining = nil
		return nil

	case tagStashed:
		if b.Epoch.Curr != m.epoch {
			return herrors.Protocol("collect: epoch %d does not match stashed epoch %d", b.Epoch.Curr, m.epoch)
		}
		if _, dup := m.collected[a]; dup {
			return herrors.Protocol("collect: actor %d already collected for epoch %d", a, m.epoch)
		}
		m.collected[a] = struct{}{}
		return nil

	case tagIssued:
		if b.Epoch.Curr != m.epoch {
			return herrors.Protocol("collect: epoch %d does not match issued epoch %d", b.Epoch.Curr, m.epoch)
		}
		if _, ok := m.remaining[a]; !ok {
			return herrors.Protocol("collect: actor %d is not awaited for epoch %d", a, m.epoch)
		}
		delete(m.remaining, a)
		m.mayNotify()
		return nil

	default:
		return herrors.Protocol("collect: unknown state tag %d", m.tag)
	}
}

// Issue hands the state machine the authoritative set of actors to collect
// for b, merging in whatever has already been Stashed. It panics on an
// Issued -> issue transition: per §4.2 that is a protocol violation the
// caller cannot recover from locally, and per §7 the state machine crashes
// the worker rather than returning an error, leaving recovery (§4.3) to
// re-admit it.
func (m *ManagedState) Issue(b Barrier, targets []ActorID, notifier chan struct{}) {
	switch m.tag {
	case tagPending:
		m.tag = tagIssued
		m.epoch = b.Epoch.Curr
		m.remaining = toSet(targets)
		m.notifier = notifier
		m.mayNotify()

	case tagStashed:
		if b.Epoch.Curr != m.epoch {
			panic(herrors.Protocol("issue: epoch %d does not match stashed epoch %d", b.Epoch.Curr, m.epoch))
		}
		remaining := toSet(targets)
		for a := range m.collected {
			delete(remaining, a)
		}
		m.tag = tagIssued
		m.remaining = remaining
		m.notifier = notifier
		m.mayNotify()

	case tagIssued:
		panic(herrors.Protocol("issue: already issued for epoch %d", m.epoch))

	default:
		panic(herrors.Protocol("issue: unknown state tag %d", m.tag))
	}
}

// mayNotify fires the notifier exactly once and resets to Pending{last} the
// moment remaining becomes empty. It is only ever called from the Issued
// branch. A notifier send on a closed/dropped channel is recovered as a
// warning, not an error (§4.2, §9 open question: currently warn-and-continue).
func (m *ManagedState) mayNotify() {
	if m.tag != tagIssued || len(m.remaining) > 0 {
		return
	}
	completed := m.epoch
	notifier := m.notifier

	m.tag = tagPending
	m.lastEpoch = completed
	m.hasLastEpoch = true
	m.collected = nil
	m.remaining = nil
	m.notifier = nil

	if notifier == nil {
		return
	}
	// notifier is a one-shot handoff the caller is expected to receive on;
	// a panic here means the caller already closed/dropped its end, which
	// §4.2 treats as a warning rather than an error.
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("collect notifier receiver dropped", zap.Uint64("epoch", completed))
		}
	}()
	notifier <- struct{}{}
}

func toSet(ids []ActorID) map[ActorID]struct{} {
	s := make(map[ActorID]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
