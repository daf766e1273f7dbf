package state_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/hummock/barrier/state"
	"github.com/erigontech/hummock/hummock/herrors"
)

func TestScenarioS5(t *testing.T) {
	m := state.NewManagedState(nil)

	b := state.Barrier{Epoch: state.Epoch{Prev: 0, Curr: 5}}
	notifier := make(chan struct{}, 1)

	require.NoError(t, m.Collect(1, b))
	require.NoError(t, m.Collect(2, b))

	m.Issue(b, []state.ActorID{1, 2, 3}, notifier)
	select {
	case <-notifier:
		t.Fatal("notifier fired before all actors collected")
	default:
	}

	require.NoError(t, m.Collect(3, b))

	select {
	case <-notifier:
	default:
		t.Fatal("notifier did not fire")
	}

	last, ok := m.LastEpoch()
	require.True(t, ok)
	require.EqualValues(t, 5, last)
}

func TestIssueAlreadyIssuedPanics(t *testing.T) {
	m := state.NewManagedState(nil)
	b := state.Barrier{Epoch: state.Epoch{Prev: 0, Curr: 1}}
	notifier := make(chan struct{}, 1)
	m.Issue(b, []state.ActorID{1}, notifier)

	require.Panics(t, func() {
		m.Issue(b, []state.ActorID{1}, notifier)
	})
}

func TestCollectWrongPrevEpochIsProtocolError(t *testing.T) {
	m := state.NewManagedState(nil)
	b1 := state.Barrier{Epoch: state.Epoch{Prev: 0, Curr: 1}}
	notifier := make(chan struct{}, 1)
	m.Issue(b1, []state.ActorID{1}, notifier)
	require.NoError(t, m.Collect(1, b1))

	bad := state.Barrier{Epoch: state.Epoch{Prev: 999, Curr: 2}}
	err := m.Collect(2, bad)
	require.ErrorIs(t, err, herrors.ErrProtocol)
}

func TestNotifierDroppedReceiverIsWarningNotPanic(t *testing.T) {
	m := state.NewManagedState(nil)
	b := state.Barrier{Epoch: state.Epoch{Prev: 0, Curr: 1}}
	notifier := make(chan struct{})
	close(notifier)

	require.NotPanics(t, func() {
		m.Issue(b, []state.ActorID{1}, notifier)
		_ = m.Collect(1, b)
	})
}
