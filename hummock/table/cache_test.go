package table_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/hummock/hummock/key"
	"github.com/erigontech/hummock/hummock/objstore"
	"github.com/erigontech/hummock/hummock/table"
	"github.com/erigontech/hummock/hummock/value"
)

func TestCacheReturnsSameTableOnRepeatedOpen(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewLocal(t.TempDir())
	b := table.NewBuilder("t1", store, table.NoCompression, 0)
	require.NoError(t, b.Add(key.New([]byte("a"), 1), value.Put([]byte("x"))))
	_, err := b.Finish(ctx)
	require.NoError(t, err)

	c := table.NewCache(store)
	first, err := c.Open(ctx, "t1")
	require.NoError(t, err)
	second, err := c.Open(ctx, "t1")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestCacheEvictForcesReopen(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewLocal(t.TempDir())
	b := table.NewBuilder("t1", store, table.NoCompression, 0)
	require.NoError(t, b.Add(key.New([]byte("a"), 1), value.Put([]byte("x"))))
	_, err := b.Finish(ctx)
	require.NoError(t, err)

	c := table.NewCache(store)
	first, err := c.Open(ctx, "t1")
	require.NoError(t, err)
	c.Evict("t1")
	second, err := c.Open(ctx, "t1")
	require.NoError(t, err)
	require.NotSame(t, first, second)
}
