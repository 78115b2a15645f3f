package bbolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemint/serpd/internal/storage/kvdb"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReadWriteDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Read(ctx, []byte("missing"))
	assert.ErrorIs(t, err, kvdb.ErrKeyNotFound)

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, db.Delete(ctx, []byte("k")))
	_, err = db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, kvdb.ErrKeyNotFound)
}

func TestBatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.Batch(ctx, []kvdb.BatchOperation{
		{Type: kvdb.BatchPut, Key: []byte("a"), Value: []byte("1")},
		{Type: kvdb.BatchPut, Key: []byte("b"), Value: []byte("2")},
	})
	require.NoError(t, err)

	got, err := db.Read(ctx, []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestIteratorRange(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for _, k := range []string{"c", "a", "b", "d"} {
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

func TestClosed(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())
	_, err := db.Read(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, kvdb.ErrDBClosed)
}
