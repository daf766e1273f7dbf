package exchange_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/hummock/barrier/exchange"
)

func TestOpenStreamReusesExistingStream(t *testing.T) {
	e := exchange.NewEndpoint(4, 0, nil)
	req := exchange.StreamRequest{UpFragmentID: 1, DownFragmentID: 2, PeerAddr: "10.0.0.1:1"}

	first, err := e.OpenStream(req)
	require.NoError(t, err)
	second, err := e.OpenStream(req)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, e.StreamCount())
}

func TestCloseStreamForgetsIt(t *testing.T) {
	e := exchange.NewEndpoint(4, 0, nil)
	req := exchange.StreamRequest{UpFragmentID: 1, DownFragmentID: 2, PeerAddr: "10.0.0.1:1"}

	_, err := e.OpenStream(req)
	require.NoError(t, err)
	e.CloseStream(1, 2)
	require.Equal(t, 0, e.StreamCount())

	reopened, err := e.OpenStream(req)
	require.NoError(t, err)
	require.NotNil(t, reopened)
	require.Equal(t, 1, e.StreamCount())
}
