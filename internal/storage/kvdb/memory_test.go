package kvdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDBReadWrite(t *testing.T) {
	db := NewMemoryDB()
	ctx := context.Background()

	_, err := db.Read(ctx, []byte("missing"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, db.Delete(ctx, []byte("k")))
	_, err = db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryDBBatch(t *testing.T) {
	db := NewMemoryDB()
	ctx := context.Background()
	require.NoError(t, db.Write(ctx, []byte("old"), []byte("x")))

	err := db.Batch(ctx, []BatchOperation{
		{Type: BatchPut, Key: []byte("a"), Value: []byte("1")},
		{Type: BatchPut, Key: []byte("b"), Value: []byte("2")},
		{Type: BatchDelete, Key: []byte("old")},
	})
	require.NoError(t, err)

	got, err := db.Read(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
	_, err = db.Read(ctx, []byte("old"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryDBIterator(t *testing.T) {
	db := NewMemoryDB()
	ctx := context.Background()
	for _, k := range []string{"b", "a", "c", "d"} {
		require.NoError(t, db.Write(ctx, []byte(k), []byte("v"+k)))
	}

	iter, err := db.Iterator(ctx, []byte("b"), []byte("d"))
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"b", "c"}, keys)
}

func TestMemoryDBIteratorFullRange(t *testing.T) {
	db := NewMemoryDB()
	ctx := context.Background()
	for _, k := range []string{"x", "y"} {
		require.NoError(t, db.Write(ctx, []byte(k), []byte(k)))
	}

	iter, err := db.Iterator(ctx, nil, nil)
	require.NoError(t, err)
	defer iter.Close()

	n := 0
	for iter.Next() {
		n++
	}
	assert.Equal(t, 2, n)
}

func TestMemoryDBClosed(t *testing.T) {
	db := NewMemoryDB()
	require.NoError(t, db.Close())

	_, err := db.Read(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, ErrDBClosed)
	assert.ErrorIs(t, db.Write(context.Background(), []byte("k"), nil), ErrDBClosed)
}

func TestMemoryDBCopiesValues(t *testing.T) {
	db := NewMemoryDB()
	ctx := context.Background()
	val := []byte("mutable")
	require.NoError(t, db.Write(ctx, []byte("k"), val))
	val[0] = 'X'

	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("mutable"), got)
}
