// Package bbolt provides a bbolt-backed kvdb.DB. All state lives in a single
// bucket; batches run inside one bbolt update transaction.
package bbolt

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/stablemint/serpd/internal/storage/kvdb"
)

var bucketName = []byte("ledger")

type DB struct {
	db *bbolt.DB
}

// Open opens (or creates) the database file at path.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt database %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger bucket: %w", err)
	}
	return &DB{db: db}, nil
}

func (b *DB) Read(_ context.Context, key []byte) ([]byte, error) {
	if b.db == nil {
		return nil, kvdb.ErrDBClosed
	}
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v == nil {
			return kvdb.ErrKeyNotFound
		}
		// bbolt values are only valid inside the transaction.
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *DB) Write(_ context.Context, key, value []byte) error {
	if b.db == nil {
		return kvdb.ErrDBClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

func (b *DB) Delete(_ context.Context, key []byte) error {
	if b.db == nil {
		return kvdb.ErrDBClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

func (b *DB) Batch(_ context.Context, ops []kvdb.BatchOperation) error {
	if b.db == nil {
		return kvdb.ErrDBClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, op := range ops {
			var err error
			switch op.Type {
			case kvdb.BatchPut:
				err = bucket.Put(op.Key, op.Value)
			case kvdb.BatchDelete:
				err = bucket.Delete(op.Key)
			default:
				err = fmt.Errorf("unknown batch operation type: %d", op.Type)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *DB) Iterator(_ context.Context, start, end []byte) (kvdb.Iterator, error) {
	if b.db == nil {
		return nil, kvdb.ErrDBClosed
	}

	// Snapshot the range up front; iteration outlives the view transaction.
	var entries [][2][]byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		var k, v []byte
		if start == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && string(k) >= string(end) {
				break
			}
			kc := make([]byte, len(k))
			copy(kc, k)
			vc := make([]byte, len(v))
			copy(vc, v)
			entries = append(entries, [2][]byte{kc, vc})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &iterator{entries: entries, pos: -1}, nil
}

func (b *DB) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

type iterator struct {
	entries [][2][]byte
	pos     int
}

func (it *iterator) Next() bool {
	if it.pos+1 >= len(it.entries) {
		return false
	}
	it.pos++
	return true
}

func (it *iterator) Key() []byte   { return it.entries[it.pos][0] }
func (it *iterator) Value() []byte { return it.entries[it.pos][1] }
func (it *iterator) Error() error  { return nil }
func (it *iterator) Close() error  { return nil }
