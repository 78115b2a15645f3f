// Package store is the balance store: the sole owner of balance and issuance
// state, plus the raw record tables (swaps, price points) that the other
// components persist through it.
//
// Mutations never go to the database directly. Callers open a View, apply a
// block of changes against it, and Commit; the commit is a single atomic
// key-value batch, so a block of updates is applied entirely or not at all.
package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/stablemint/serpd/internal/core/types"
	"github.com/stablemint/serpd/internal/storage/kvdb"
)

// Holder is one (account, balance) pair produced by holder iteration.
type Holder struct {
	Account types.AccountID
	Balance types.Balance
}

// Store wraps a kvdb.DB with the persisted state layout.
type Store struct {
	db kvdb.DB
}

func New(db kvdb.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying database for snapshot export.
func (s *Store) DB() kvdb.DB { return s.db }

// NewView opens an overlay over the committed state. Reads fall through to
// the database; writes stay in the overlay until Commit.
func (s *Store) NewView() *View {
	return &View{
		store:   s,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// GetBalance reads a committed free balance. A missing key is a zero balance.
func (s *Store) GetBalance(account types.AccountID, currency types.CurrencyID) (types.Balance, error) {
	return decodeBalance(s.read(balanceKey(currency, account)))
}

// GetReserved reads a committed reserved balance. A missing key is zero.
func (s *Store) GetReserved(account types.AccountID, currency types.CurrencyID) (types.Balance, error) {
	return decodeBalance(s.read(reservedKey(currency, account)))
}

// GetIssuance reads a committed total issuance. A missing key is zero.
func (s *Store) GetIssuance(currency types.CurrencyID) (types.Balance, error) {
	return decodeBalance(s.read(issuanceKey(currency)))
}

func (s *Store) read(key []byte) ([]byte, error) {
	v, err := s.db.Read(context.Background(), key)
	if err != nil {
		if errors.Is(err, kvdb.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// Holders returns every account with a nonzero committed free balance of the
// currency, in ascending account order. Reserved balances are tracked
// separately and never appear here.
func (s *Store) Holders(currency types.CurrencyID) ([]Holder, error) {
	return s.scanHolders(balancePrefix(currency))
}

// ReservedHolders returns every account with a nonzero committed reserved
// balance of the currency, in ascending account order.
func (s *Store) ReservedHolders(currency types.CurrencyID) ([]Holder, error) {
	return s.scanHolders(reservedPrefix(currency))
}

func (s *Store) scanHolders(prefix []byte) ([]Holder, error) {
	iter, err := s.db.Iterator(context.Background(), prefix, prefixEnd(prefix))
	if err != nil {
		return nil, fmt.Errorf("iterating holders: %w", err)
	}
	defer iter.Close()

	var holders []Holder
	for iter.Next() {
		bal, err := decodeBalance(iter.Value(), nil)
		if err != nil {
			return nil, err
		}
		account := types.AccountID(iter.Key()[len(prefix):])
		holders = append(holders, Holder{Account: account, Balance: bal})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return holders, nil
}

func encodeBalance(b types.Balance) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(b))
	return buf[:]
}

func decodeBalance(v []byte, err error) (types.Balance, error) {
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("malformed balance value of %d bytes", len(v))
	}
	return types.Balance(binary.BigEndian.Uint64(v)), nil
}
