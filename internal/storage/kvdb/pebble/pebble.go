// Package pebble provides a pebble-backed kvdb.DB.
package pebble

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/stablemint/serpd/internal/storage/kvdb"
)

type DB struct {
	db *pebble.DB
}

// Open opens (or creates) a pebble store at dir.
func Open(dir string) (*DB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble database %s: %w", dir, err)
	}
	return &DB{db: db}, nil
}

func (p *DB) Read(_ context.Context, key []byte) ([]byte, error) {
	if p.db == nil {
		return nil, kvdb.ErrDBClosed
	}
	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, kvdb.ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, nil
}

func (p *DB) Write(_ context.Context, key, value []byte) error {
	if p.db == nil {
		return kvdb.ErrDBClosed
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *DB) Delete(_ context.Context, key []byte) error {
	if p.db == nil {
		return kvdb.ErrDBClosed
	}
	return p.db.Delete(key, pebble.Sync)
}

func (p *DB) Batch(_ context.Context, ops []kvdb.BatchOperation) error {
	if p.db == nil {
		return kvdb.ErrDBClosed
	}
	batch := p.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		switch op.Type {
		case kvdb.BatchPut:
			if err := batch.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case kvdb.BatchDelete:
			if err := batch.Delete(op.Key, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	return batch.Commit(pebble.Sync)
}

func (p *DB) Iterator(_ context.Context, start, end []byte) (kvdb.Iterator, error) {
	if p.db == nil {
		return nil, kvdb.ErrDBClosed
	}
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}
	return &iterator{iter: iter}, nil
}

func (p *DB) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

type iterator struct {
	iter    *pebble.Iterator
	started bool
}

func (it *iterator) Next() bool {
	if !it.started {
		it.started = true
		return it.iter.First()
	}
	return it.iter.Next()
}

func (it *iterator) Key() []byte {
	k := it.iter.Key()
	cp := make([]byte, len(k))
	copy(cp, k)
	return cp
}

func (it *iterator) Value() []byte {
	v := it.iter.Value()
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp
}

func (it *iterator) Error() error { return it.iter.Error() }
func (it *iterator) Close() error { return it.iter.Close() }
