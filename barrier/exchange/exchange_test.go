package exchange_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/hummock/barrier/exchange"
	"github.com/erigontech/hummock/hummock/herrors"
)

func TestOpenRejectsMissingPeerAddr(t *testing.T) {
	_, err := exchange.Open(exchange.StreamRequest{UpFragmentID: 1, DownFragmentID: 2}, 0, nil, nil)
	require.ErrorIs(t, err, herrors.ErrConnectionUnestablished)
}

func TestSendRecvRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := exchange.Open(exchange.StreamRequest{UpFragmentID: 1, DownFragmentID: 2, PeerAddr: "10.0.0.1:1"}, 4, nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Send(ctx, "a"))
	require.NoError(t, s.Send(ctx, "b"))

	rec, ok, err := s.Recv(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", rec)
}

func TestCloseTerminatesReceiver(t *testing.T) {
	ctx := context.Background()
	s, err := exchange.Open(exchange.StreamRequest{UpFragmentID: 1, DownFragmentID: 2, PeerAddr: "10.0.0.1:1"}, 1, nil, nil)
	require.NoError(t, err)
	s.Close()

	_, ok, err := s.Recv(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSendBlocksWhenFullThenUnblocksOnRecv(t *testing.T) {
	s, err := exchange.Open(exchange.StreamRequest{UpFragmentID: 1, DownFragmentID: 2, PeerAddr: "x"}, 1, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Send(ctx, "first"))

	done := make(chan error, 1)
	go func() { done <- s.Send(ctx, "second") }()

	select {
	case <-done:
		t.Fatal("send should have blocked on a full channel")
	case <-time.After(20 * time.Millisecond):
	}

	_, _, err = s.Recv(ctx)
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked send did not unblock after a receive")
	}
}
