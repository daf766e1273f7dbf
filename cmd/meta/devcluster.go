// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package main

import (
	"context"
	"sync"

	"github.com/erigontech/hummock/barrier/recovery"
	"github.com/erigontech/hummock/barrier/state"
)

// devComputeClient and devMetaStore give cmd/meta something to drive
// recovery against without a real gRPC compute-node fleet (the wire
// encoding of that RPC is a collaborator concern, per spec.md's
// non-goals). They model a single-node development cluster: every call
// succeeds immediately, which is enough to exercise the recovery
// procedure's control flow end to end.
type devComputeClient struct{}

func (devComputeClient) ForceStop(context.Context, string, state.Epoch) error { return nil }
func (devComputeClient) SyncSources(context.Context, string, []recovery.SourceDescriptor) error {
	return nil
}
func (devComputeClient) UpdateActors(context.Context, string, []recovery.ActorInfo, []state.ActorID) error {
	return nil
}
func (devComputeClient) BuildActors(context.Context, string, []state.ActorID) error { return nil }
func (devComputeClient) InjectBarrier(context.Context, string, state.Barrier, string) (recovery.InjectBarrierResponse, error) {
	return recovery.InjectBarrierResponse{}, nil
}

type devMetaStore struct {
	mu        sync.Mutex
	nextEpoch uint64
}

func newDevMetaStore(startEpoch uint64) *devMetaStore {
	return &devMetaStore{nextEpoch: startEpoch}
}

func (d *devMetaStore) SnapshotActorInfo(context.Context) (recovery.ActorSnapshot, error) {
	return recovery.ActorSnapshot{
		ActorMap: map[string][]state.ActorID{"local": {1}},
		NodeMap:  map[string]recovery.NodeDescriptor{"local": {ID: "local", Host: "127.0.0.1:7070"}},
	}, nil
}

func (d *devMetaStore) NextEpoch(context.Context) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextEpoch++
	return d.nextEpoch, nil
}

func (d *devMetaStore) DropMaterializedViewFragments(context.Context, string) error { return nil }

func (d *devMetaStore) SourceCatalogue(context.Context) ([]recovery.SourceDescriptor, error) {
	return nil, nil
}

func (d *devMetaStore) PostCollect(context.Context, recovery.Command) error { return nil }
