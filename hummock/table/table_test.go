package table_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/hummock/hummock/key"
	"github.com/erigontech/hummock/hummock/objstore"
	"github.com/erigontech/hummock/hummock/table"
	"github.com/erigontech/hummock/hummock/value"
)

func buildTable(t *testing.T, n int, compressor table.BlockCompressor) (*table.Table, [][]byte) {
	t.Helper()
	ctx := context.Background()
	store := objstore.NewLocal(t.TempDir())
	// These fixed-width synthetic entries encode to roughly 20-30 bytes
	// each pre-compression; a hint of 40 bytes/entry overestimates that and
	// exercises the builder's preallocation hint.
	b := table.NewBuilder("t1", store, compressor, n*40)

	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		uk := fmt.Sprintf("key-%06d", i)
		k := key.New([]byte(uk), uint64(1))
		keys[i] = k
		require.NoError(t, b.Add(k, value.Put([]byte(fmt.Sprintf("val-%d", i)))))
	}
	tbl, err := b.Finish(ctx)
	require.NoError(t, err)
	return tbl, keys
}

// TestScenarioS3 builds a table with at least 10 blocks and checks random
// seeks land exactly, then that seeking mid-table and iterating forward
// yields the remaining suffix.
func TestScenarioS3(t *testing.T) {
	ctx := context.Background()
	const n = 2000
	tbl, keys := buildTable(t, n, table.NoCompression)
	require.GreaterOrEqual(t, tbl.BlockCount(), 10)

	order := rand.New(rand.NewSource(1)).Perm(n)
	it := table.NewTableIterator(tbl)
	for _, i := range order {
		require.NoError(t, it.Seek(ctx, keys[i]))
		require.True(t, it.Valid())
		require.Equal(t, keys[i], it.Key())
	}

	require.NoError(t, it.Seek(ctx, keys[500]))
	for i := 500; i < n; i++ {
		require.True(t, it.Valid())
		require.Equal(t, keys[i], it.Key())
		require.NoError(t, it.Next(ctx))
	}
	require.False(t, it.Valid())
}

// TestScenarioS4 checks boundary seeks: below all keys yields the first
// key, above all keys yields invalid.
func TestScenarioS4(t *testing.T) {
	ctx := context.Background()
	tbl, keys := buildTable(t, 50, table.NoCompression)

	it := table.NewTableIterator(tbl)
	require.NoError(t, it.Seek(ctx, key.New([]byte("key-000000"), 99)))
	require.True(t, it.Valid())
	require.Equal(t, keys[0], it.Key())

	it2 := table.NewTableIterator(tbl)
	require.NoError(t, it2.Seek(ctx, key.New([]byte("zzzzzzzzzz"), 0)))
	require.False(t, it2.Valid())
}

// TestScenarioP3 checks rewind followed by N successful next calls yields
// the full sorted key sequence, and one more next leaves is_valid false.
func TestScenarioP3(t *testing.T) {
	ctx := context.Background()
	const n = 777
	tbl, keys := buildTable(t, n, table.S2Compression)

	it := table.NewTableIterator(tbl)
	require.NoError(t, it.Rewind(ctx))
	for i := 0; i < n; i++ {
		require.True(t, it.Valid())
		require.Equal(t, keys[i], it.Key())
		require.NoError(t, it.Next(ctx))
	}
	require.False(t, it.Valid())
}

func TestValuesRoundTripThroughCompression(t *testing.T) {
	ctx := context.Background()
	tbl, keys := buildTable(t, 300, table.S2Compression)

	it := table.NewTableIterator(tbl)
	require.NoError(t, it.Seek(ctx, keys[42]))
	p, ok := it.Value().IntoPut()
	require.True(t, ok)
	require.Equal(t, "val-42", string(p))
}
