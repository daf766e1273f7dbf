package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/hummock/barrier/state"
	"github.com/erigontech/hummock/barrier/worker"
)

func TestInjectBarrierCompletesAfterAllTargetsCollect(t *testing.T) {
	w := worker.New(nil)
	b := state.Barrier{Epoch: state.Epoch{Prev: 0, Curr: 1}}
	targets := []state.ActorID{1, 2}

	done := make(chan error, 1)
	go func() {
		done <- w.InjectBarrier(context.Background(), b, targets)
	}()

	// Give InjectBarrier a chance to call Issue before actors report in.
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, w.Collect(1, b))
	require.NoError(t, w.Collect(2, b))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("InjectBarrier did not complete after all targets collected")
	}

	epoch, ok := w.LastEpoch()
	require.True(t, ok)
	require.Equal(t, uint64(1), epoch)
}

func TestInjectBarrierRespectsContextCancellation(t *testing.T) {
	w := worker.New(nil)
	b := state.Barrier{Epoch: state.Epoch{Prev: 0, Curr: 1}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.InjectBarrier(ctx, b, []state.ActorID{1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCollectIsSafeFromConcurrentActors(t *testing.T) {
	w := worker.New(nil)
	b := state.Barrier{Epoch: state.Epoch{Prev: 0, Curr: 1}}
	targets := []state.ActorID{1, 2, 3, 4, 5}

	done := make(chan error, 1)
	go func() { done <- w.InjectBarrier(context.Background(), b, targets) }()
	time.Sleep(10 * time.Millisecond)

	var wg sync.WaitGroup
	for _, a := range targets {
		a := a
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, w.Collect(a, b))
		}()
	}
	wg.Wait()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("InjectBarrier did not complete")
	}
}
