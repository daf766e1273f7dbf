package memtable_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/erigontech/hummock/hummock/key"
	"github.com/erigontech/hummock/hummock/memtable"
	"github.com/erigontech/hummock/hummock/value"
)

func mustRun(t *testing.T, pairs [][2]string) *memtable.Run {
	t.Helper()
	items := make([]memtable.Item, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, memtable.Item{Key: []byte(p[0]), Value: value.Put([]byte(p[1]))})
	}
	sort.Slice(items, func(i, j int) bool { return key.Compare(items[i].Key, items[j].Key) < 0 })
	return memtable.New(items)
}

// TestScenarioS1 follows spec §8 S1 exactly.
func TestScenarioS1(t *testing.T) {
	ctx := context.Background()
	run := mustRun(t, [][2]string{
		{string(key.New([]byte("a"), 9)), "x"},
		{string(key.New([]byte("a"), 7)), "y"},
		{string(key.New([]byte("b"), 3)), "z"},
	})

	it := run.Iterator()
	require.NoError(t, it.Rewind(ctx))
	requireKV(t, it, "a", "x")
	require.NoError(t, it.Next(ctx))
	requireKV(t, it, "a", "y")
	require.NoError(t, it.Next(ctx))
	requireKV(t, it, "b", "z")
	require.NoError(t, it.Next(ctx))
	require.False(t, it.Valid())
}

// TestScenarioS2 follows spec §8 S2: seeking "a|8" lands on "a|7" because ts
// descends within equal user keys.
func TestScenarioS2(t *testing.T) {
	ctx := context.Background()
	run := mustRun(t, [][2]string{
		{string(key.New([]byte("a"), 9)), "x"},
		{string(key.New([]byte("a"), 7)), "y"},
		{string(key.New([]byte("b"), 3)), "z"},
	})

	it := run.Iterator()
	require.NoError(t, it.Seek(ctx, key.New([]byte("a"), 8)))
	requireKV(t, it, "a", "y")
}

func requireKV(t *testing.T, it *memtable.RunIterator, wantUser, wantVal string) {
	t.Helper()
	require.True(t, it.Valid())
	require.Equal(t, wantUser, string(key.UserKey(it.Key())))
	p, ok := it.Value().IntoPut()
	require.True(t, ok)
	require.Equal(t, wantVal, string(p))
}

// TestForwardBackwardProperty is the property test for P1: forward
// iteration yields exactly V; backward iteration yields V reversed.
func TestForwardBackwardProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "n")
		seen := map[string]bool{}
		var items []memtable.Item
		for i := 0; i < n; i++ {
			var uk string
			for {
				uk = rapid.StringN(1, 5, -1).Draw(rt, "user_key")
				if !seen[uk] {
					seen[uk] = true
					break
				}
			}
			items = append(items, memtable.Item{
				Key:   key.New([]byte(uk), 1),
				Value: value.Put([]byte(uk)),
			})
		}
		sort.Slice(items, func(i, j int) bool { return key.Compare(items[i].Key, items[j].Key) < 0 })
		run := memtable.New(append([]memtable.Item(nil), items...))
		ctx := context.Background()

		fwd := run.Iterator()
		require.NoError(rt, fwd.Rewind(ctx))
		var gotFwd [][]byte
		for fwd.Valid() {
			gotFwd = append(gotFwd, append([]byte(nil), fwd.Key()...))
			require.NoError(rt, fwd.Next(ctx))
		}
		require.Equal(rt, len(items), len(gotFwd))
		for i := range items {
			require.Equal(rt, items[i].Key, gotFwd[i])
		}

		bwd := run.ReverseIterator()
		require.NoError(rt, bwd.Rewind(ctx))
		var gotBwd [][]byte
		for bwd.Valid() {
			gotBwd = append(gotBwd, append([]byte(nil), bwd.Key()...))
			require.NoError(rt, bwd.Next(ctx))
		}
		require.Equal(rt, len(items), len(gotBwd))
		for i := range items {
			require.Equal(rt, items[len(items)-1-i].Key, gotBwd[i])
		}
	})
}

// TestSeekProperty checks P2: after Seek(k), either invalid or Key() >= k,
// and an exact match is landed on precisely.
func TestSeekProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		seen := map[string]bool{}
		var items []memtable.Item
		for i := 0; i < n; i++ {
			var uk string
			for {
				uk = rapid.StringN(1, 4, -1).Draw(rt, "user_key")
				if !seen[uk] {
					seen[uk] = true
					break
				}
			}
			items = append(items, memtable.Item{Key: key.New([]byte(uk), 1), Value: value.Put(nil)})
		}
		sort.Slice(items, func(i, j int) bool { return key.Compare(items[i].Key, items[j].Key) < 0 })
		run := memtable.New(items)
		ctx := context.Background()

		targetIdx := rapid.IntRange(0, len(items)-1).Draw(rt, "target_idx")
		target := items[targetIdx].Key

		it := run.Iterator()
		require.NoError(rt, it.Seek(ctx, target))
		require.True(rt, it.Valid())
		require.True(rt, key.Compare(it.Key(), target) >= 0)
		if key.Compare(it.Key(), target) == 0 {
			require.Equal(rt, target, it.Key())
		}
	})
}
