// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package recovery implements the meta-side global barrier recovery
// procedure (spec §4.3): after a failure, rebuild the actor graph across
// every compute node and inject a checkpoint barrier to bootstrap
// executors. The manager serialises recovery (one at a time, §5); within
// one recovery, per-node calls run concurrently via golang.org/x/sync's
// errgroup. The checkpoint InjectBarrier call carries a fresh UUID per
// attempt so the server side can detect retries (§9); the other
// ComputeClient calls, force-stop included, carry no idempotency token.
package recovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/erigontech/hummock/barrier/state"
	"github.com/erigontech/hummock/hummock/herrors"
	"github.com/erigontech/hummock/internal/rpcstatus"
	"github.com/erigontech/hummock/internal/xmath"
)

// CommandKind names the opaque command a barrier may carry (§3.6).
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandCreateMaterializedView
	CommandDrop
)

// Command is the opaque configuration payload carried by a barrier; the
// core treats its contents as a collaborator concern except for the one
// CreateMaterializedView case recovery must clean up after (§4.3 step 2).
type Command struct {
	Kind    CommandKind
	TableID string
}

// NodeDescriptor is one compute node in the cluster, as owned by the meta
// service's snapshot (§3.7).
type NodeDescriptor struct {
	ID   string
	Host string
}

// ActorSnapshot is the meta service's read-only view of the actor graph at
// barrier-injection time (§3.7): which actors run on which node, and how
// to reach each node.
type ActorSnapshot struct {
	ActorMap map[string][]state.ActorID
	NodeMap  map[string]NodeDescriptor
}

// ActorInfo is one actor annotated with the node hosting it, the form
// broadcast to every node during update_actors (§4.3 step e).
type ActorInfo struct {
	ActorID state.ActorID
	NodeID  string
	Host    string
}

// SourceDescriptor is an opaque catalogue entry broadcast during
// sync_sources (§4.3 step d).
type SourceDescriptor struct {
	Name string
}

// MViewEntry is one finished-materialized-view record a node may report
// back in its checkpoint-inject response (§6.3).
type MViewEntry struct {
	TableID string
	Epoch   uint64
}

// InjectBarrierResponse is a node's reply to an injected barrier.
type InjectBarrierResponse struct {
	FinishedCreateMView []MViewEntry
}

// Result is recovery's return value: the checkpoint epoch, the full set of
// rebuilt actor ids, and any finished-create-materialized-view records
// flattened from every node's response (§4.3 step 4).
type Result struct {
	Epoch               uint64
	ChainActorIDs       []state.ActorID
	FinishedCreateMView []MViewEntry
}

// ComputeClient is the per-node RPC surface recovery drives (§6.3,
// collaborator contract).
type ComputeClient interface {
	ForceStop(ctx context.Context, nodeID string, epoch state.Epoch) error
	SyncSources(ctx context.Context, nodeID string, catalogue []SourceDescriptor) error
	UpdateActors(ctx context.Context, nodeID string, actorInfos []ActorInfo, nodeActors []state.ActorID) error
	BuildActors(ctx context.Context, nodeID string, actorIDs []state.ActorID) error
	InjectBarrier(ctx context.Context, nodeID string, barrier state.Barrier, idempotencyToken string) (InjectBarrierResponse, error)
}

// MetaStore is the durable meta-service surface recovery reads and writes
// (collaborator contract).
type MetaStore interface {
	SnapshotActorInfo(ctx context.Context) (ActorSnapshot, error)
	NextEpoch(ctx context.Context) (uint64, error)
	DropMaterializedViewFragments(ctx context.Context, tableID string) error
	SourceCatalogue(ctx context.Context) ([]SourceDescriptor, error)
	PostCollect(ctx context.Context, cmd Command) error
}

// BarrierScheduler aborts any buffered, not-yet-issued barriers (§4.3 step
// 1). It is optional; a nil scheduler means step 1 is a no-op.
type BarrierScheduler interface {
	AbortAll(ctx context.Context)
}

// Manager drives global barrier recovery. It serialises recovery attempts:
// the global barrier manager runs one recovery at a time (§5).
type Manager struct {
	mu sync.Mutex

	compute   ComputeClient
	meta      MetaStore
	scheduler BarrierScheduler
	logger    *zap.Logger

	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// NewManager constructs a recovery Manager. scheduler may be nil.
func NewManager(compute ComputeClient, meta MetaStore, scheduler BarrierScheduler, logger *zap.Logger, baseBackoff, maxBackoff time.Duration) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}
	if maxBackoff <= 0 {
		maxBackoff = 10 * time.Second
	}
	return &Manager{compute: compute, meta: meta, scheduler: scheduler, logger: logger, baseBackoff: baseBackoff, maxBackoff: maxBackoff}
}

// classifyComputeError reclassifies an error returned across the
// ComputeClient boundary. A real ComputeClient implementation is a gRPC
// client (§6.3), so errors arriving here have typically passed through
// internal/rpcstatus's status<->herrors mapping at least once already;
// running them through rpcstatus.ToError again is a no-op for a plain
// herrors sentinel and recovers the sentinel for anything that still
// carries a raw gRPC status. Decoding and protocol-violation kinds are not
// transient, so they're wrapped as backoff.Permanent to stop a retry loop
// from spinning on an error retrying can never fix.
func classifyComputeError(err error) error {
	if err == nil {
		return nil
	}
	classified := rpcstatus.ToError(err)
	if errors.Is(classified, herrors.ErrDecoding) || errors.Is(classified, herrors.ErrProtocol) {
		return backoff.Permanent(classified)
	}
	return classified
}

func (m *Manager) newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.baseBackoff
	b.MaxInterval = m.maxBackoff
	b.MaxElapsedTime = 0 // recovery is expected to eventually succeed (§4.3)
	return backoff.WithContext(b, ctx)
}

// Recover runs the global barrier recovery procedure (§4.3). It serialises
// against concurrent Recover calls and retries its body with jittered
// exponential backoff, using the Manager's base and max intervals (100ms
// and 10s by default), unboundedly until it succeeds, ctx is cancelled, or
// an attempt fails with a decoding or protocol error.
func (m *Manager) Recover(ctx context.Context, prevEpoch uint64, prevCommand Command) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scheduler != nil {
		m.scheduler.AbortAll(ctx)
	}

	if prevCommand.Kind == CommandCreateMaterializedView {
		m.cleanupCreateMV(ctx, prevCommand.TableID)
	}
	// Drop commands need no cleanup (§4.3 step 2): the original drop is
	// authoritative and a subsequent recovery rebuilds only what remains.

	var result Result
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		r, err := m.attempt(ctx, prevEpoch, prevCommand)
		if err != nil {
			classified := classifyComputeError(err)
			m.logger.Warn("recovery attempt failed, retrying", zap.Int("attempt", attempt), zap.Error(classified))
			return classified
		}
		result = r
		return nil
	}, m.newBackOff(ctx))
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (m *Manager) cleanupCreateMV(ctx context.Context, tableID string) {
	_ = backoff.Retry(func() error {
		return m.meta.DropMaterializedViewFragments(ctx, tableID)
	}, m.newBackOff(ctx))
}

func (m *Manager) attempt(ctx context.Context, prevEpoch uint64, prevCommand Command) (Result, error) {
	snap, err := m.meta.SnapshotActorInfo(ctx)
	if err != nil {
		return Result{}, err
	}

	e1, err := m.meta.NextEpoch(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := m.forceStopAll(ctx, snap, prevEpoch, e1); err != nil {
		return Result{}, err
	}

	catalogue, err := m.meta.SourceCatalogue(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := m.syncSourcesAll(ctx, snap, catalogue); err != nil {
		return Result{}, err
	}

	infos, nodeActors := buildActorInfos(snap)
	if err := m.updateActorsAll(ctx, snap, infos, nodeActors); err != nil {
		return Result{}, err
	}
	if err := m.buildActorsAll(ctx, snap, nodeActors); err != nil {
		return Result{}, err
	}

	e2, err := m.meta.NextEpoch(ctx)
	if err != nil {
		return Result{}, err
	}

	finished, err := m.injectCheckpointAll(ctx, snap, e1, e2)
	if err != nil {
		return Result{}, err
	}

	if err := m.meta.PostCollect(ctx, prevCommand); err != nil {
		return Result{}, err
	}

	m.logger.Info("recovery checkpoint injected",
		zap.Uint64("stop_epoch", e1),
		zap.Uint64("checkpoint_epoch", e2),
		zap.Uint64("epoch_gap", xmath.AbsoluteDifference(e2, e1)),
	)

	return Result{Epoch: e2, ChainActorIDs: flattenActorIDs(snap), FinishedCreateMView: finished}, nil
}

func (m *Manager) forceStopAll(ctx context.Context, snap ActorSnapshot, prevEpoch, e1 uint64) error {
	g, gctx := errgroup.WithContext(ctx)
	for nodeID := range snap.NodeMap {
		nodeID := nodeID
		g.Go(func() error {
			return backoff.Retry(func() error {
				return classifyComputeError(m.compute.ForceStop(gctx, nodeID, state.Epoch{Prev: prevEpoch, Curr: e1}))
			}, m.newBackOff(gctx))
		})
	}
	return g.Wait()
}

func (m *Manager) syncSourcesAll(ctx context.Context, snap ActorSnapshot, catalogue []SourceDescriptor) error {
	g, gctx := errgroup.WithContext(ctx)
	for nodeID := range snap.NodeMap {
		nodeID := nodeID
		g.Go(func() error { return classifyComputeError(m.compute.SyncSources(gctx, nodeID, catalogue)) })
	}
	return g.Wait()
}

func (m *Manager) updateActorsAll(ctx context.Context, snap ActorSnapshot, infos []ActorInfo, nodeActors map[string][]state.ActorID) error {
	g, gctx := errgroup.WithContext(ctx)
	for nodeID := range snap.NodeMap {
		nodeID := nodeID
		g.Go(func() error { return classifyComputeError(m.compute.UpdateActors(gctx, nodeID, infos, nodeActors[nodeID])) })
	}
	return g.Wait()
}

func (m *Manager) buildActorsAll(ctx context.Context, snap ActorSnapshot, nodeActors map[string][]state.ActorID) error {
	g, gctx := errgroup.WithContext(ctx)
	for nodeID := range snap.NodeMap {
		nodeID := nodeID
		g.Go(func() error { return classifyComputeError(m.compute.BuildActors(gctx, nodeID, nodeActors[nodeID])) })
	}
	return g.Wait()
}

func (m *Manager) injectCheckpointAll(ctx context.Context, snap ActorSnapshot, e1, e2 uint64) ([]MViewEntry, error) {
	barrier := state.Barrier{Epoch: state.Epoch{Prev: e1, Curr: e2}}

	var mu sync.Mutex
	var finished []MViewEntry
	g, gctx := errgroup.WithContext(ctx)
	for nodeID := range snap.NodeMap {
		nodeID := nodeID
		g.Go(func() error {
			token := uuid.NewString()
			resp, err := m.compute.InjectBarrier(gctx, nodeID, barrier, token)
			if err != nil {
				return classifyComputeError(err)
			}
			mu.Lock()
			finished = append(finished, resp.FinishedCreateMView...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return finished, nil
}

func buildActorInfos(snap ActorSnapshot) ([]ActorInfo, map[string][]state.ActorID) {
	infos := make([]ActorInfo, 0)
	nodeActors := make(map[string][]state.ActorID, len(snap.ActorMap))
	for nodeID, actors := range snap.ActorMap {
		nodeActors[nodeID] = actors
		host := snap.NodeMap[nodeID].Host
		for _, a := range actors {
			infos = append(infos, ActorInfo{ActorID: a, NodeID: nodeID, Host: host})
		}
	}
	return infos, nodeActors
}

func flattenActorIDs(snap ActorSnapshot) []state.ActorID {
	var ids []state.ActorID
	for _, actors := range snap.ActorMap {
		ids = append(ids, actors...)
	}
	return ids
}
