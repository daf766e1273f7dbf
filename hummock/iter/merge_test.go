package iter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/hummock/hummock/iter"
	"github.com/erigontech/hummock/hummock/key"
	"github.com/erigontech/hummock/hummock/value"
)

// sliceIter is a minimal forward Iterator over a pre-sorted slice, used only
// to exercise MergeIterator without depending on the memtable/table
// packages.
type sliceIter struct {
	items []sliceItem
	idx   int
}

type sliceItem struct {
	key []byte
	val value.Value
}

func newSliceIter(items []sliceItem) *sliceIter { return &sliceIter{items: items, idx: len(items)} }

func (s *sliceIter) Rewind(context.Context) error { s.idx = 0; return nil }
func (s *sliceIter) Seek(_ context.Context, k []byte) error {
	for i, it := range s.items {
		if key.Compare(it.key, k) >= 0 {
			s.idx = i
			return nil
		}
	}
	s.idx = len(s.items)
	return nil
}
func (s *sliceIter) Next(context.Context) error { s.idx++; return nil }
func (s *sliceIter) Key() []byte                { return s.items[s.idx].key }
func (s *sliceIter) Value() value.Value         { return s.items[s.idx].val }
func (s *sliceIter) Valid() bool                { return s.idx < len(s.items) }

func TestMergeIteratorOrdersAcrossSources(t *testing.T) {
	ctx := context.Background()

	run1 := newSliceIter([]sliceItem{
		{key.New([]byte("b"), 10), value.Put([]byte("b-new"))},
		{key.New([]byte("d"), 10), value.Put([]byte("d"))},
	})
	run2 := newSliceIter([]sliceItem{
		{key.New([]byte("a"), 5), value.Put([]byte("a"))},
		{key.New([]byte("c"), 5), value.Put([]byte("c"))},
	})

	m := iter.NewMergeIterator([]iter.Iterator{run1, run2})
	require.NoError(t, m.Rewind(ctx))

	var got []string
	for m.Valid() {
		u := key.UserKey(m.Key())
		got = append(got, string(u))
		require.NoError(t, m.Next(ctx))
	}
	require.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestMergeIteratorNewerWinsOnKeyCollision(t *testing.T) {
	ctx := context.Background()

	newer := newSliceIter([]sliceItem{
		{key.New([]byte("x"), 10), value.Put([]byte("newer"))},
	})
	older := newSliceIter([]sliceItem{
		{key.New([]byte("x"), 5), value.Put([]byte("older"))},
	})

	// newer carries the larger ts, so it sorts first for user key "x".
	m := iter.NewMergeIterator([]iter.Iterator{newer, older})
	require.NoError(t, m.Rewind(ctx))
	require.True(t, m.Valid())

	p, ok := m.Value().IntoPut()
	require.True(t, ok)
	require.Equal(t, []byte("newer"), p)

	require.NoError(t, m.Next(ctx))
	require.False(t, m.Valid(), "the older duplicate must be consumed, not surfaced")
}
