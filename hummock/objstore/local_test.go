package objstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/hummock/hummock/herrors"
	"github.com/erigontech/hummock/hummock/objstore"
)

func TestUploadRead(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewLocal(t.TempDir())

	require.NoError(t, store.Upload(ctx, "a/b.sst", []byte("hello world")))

	got, err := store.Read(ctx, "a/b.sst", nil)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(got))

	got, err = store.Read(ctx, "a/b.sst", &objstore.ByteRange{Offset: 6, Length: 5})
	require.NoError(t, err)
	require.Equal(t, "world", string(got))
}

func TestReadMissingIsNotFound(t *testing.T) {
	store := objstore.NewLocal(t.TempDir())
	_, err := store.Read(context.Background(), "missing", nil)
	require.True(t, errors.Is(err, herrors.ErrNotFound))
}

func TestReadPastEndIsShortRead(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewLocal(t.TempDir())
	require.NoError(t, store.Upload(ctx, "f", []byte("short")))

	_, err := store.Read(ctx, "f", &objstore.ByteRange{Offset: 0, Length: 100})
	require.True(t, errors.Is(err, herrors.ErrIO))
	var short *herrors.ShortReadError
	require.True(t, errors.As(err, &short))
	require.Equal(t, 100, short.Expected)
	require.Equal(t, 5, short.Found)
}

func TestDeleteMissingSucceeds(t *testing.T) {
	store := objstore.NewLocal(t.TempDir())
	require.NoError(t, store.Delete(context.Background(), "nope"))
}

func TestReadv(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewLocal(t.TempDir())
	require.NoError(t, store.Upload(ctx, "f", []byte("0123456789")))

	out, err := store.Readv(ctx, "f", []objstore.ByteRange{
		{Offset: 0, Length: 3},
		{Offset: 5, Length: 2},
	})
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("012"), []byte("56")}, out)
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewLocal(t.TempDir())
	require.NoError(t, store.Upload(ctx, "f", []byte("0123456789")))

	md, err := store.Metadata(ctx, "f")
	require.NoError(t, err)
	require.EqualValues(t, 10, md.TotalSize)
}
