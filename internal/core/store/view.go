package store

import (
	"context"
	"sort"
	"strings"

	"github.com/stablemint/serpd/internal/core/types"
	"github.com/stablemint/serpd/internal/storage/kvdb"
)

// View is a mutable overlay over the committed state. Every ledger operation
// runs against a View; Commit flushes all accumulated writes in one atomic
// batch, Discard throws them away. A failed operation must leave the view as
// it found it, which callers achieve through the savepoint helpers.
type View struct {
	store   *Store
	writes  map[string][]byte
	deletes map[string]struct{}
}

// GetBalance reads a balance through the overlay.
func (v *View) GetBalance(account types.AccountID, currency types.CurrencyID) (types.Balance, error) {
	return decodeBalance(v.Get(balanceKey(currency, account)))
}

// SetBalance writes a balance into the overlay. Zero balances are stored as
// deletions so holder iteration only ever sees funded accounts.
func (v *View) SetBalance(account types.AccountID, currency types.CurrencyID, balance types.Balance) {
	key := balanceKey(currency, account)
	if balance == 0 {
		v.Delete(key)
		return
	}
	v.Put(key, encodeBalance(balance))
}

// GetReserved reads a reserved balance through the overlay.
func (v *View) GetReserved(account types.AccountID, currency types.CurrencyID) (types.Balance, error) {
	return decodeBalance(v.Get(reservedKey(currency, account)))
}

// SetReserved writes a reserved balance into the overlay.
func (v *View) SetReserved(account types.AccountID, currency types.CurrencyID, reserved types.Balance) {
	key := reservedKey(currency, account)
	if reserved == 0 {
		v.Delete(key)
		return
	}
	v.Put(key, encodeBalance(reserved))
}

// GetIssuance reads a total issuance through the overlay.
func (v *View) GetIssuance(currency types.CurrencyID) (types.Balance, error) {
	return decodeBalance(v.Get(issuanceKey(currency)))
}

// SetIssuance writes a total issuance into the overlay.
func (v *View) SetIssuance(currency types.CurrencyID, issuance types.Balance) {
	key := issuanceKey(currency)
	if issuance == 0 {
		v.Delete(key)
		return
	}
	v.Put(key, encodeBalance(issuance))
}

// Get reads a raw key through the overlay. Missing keys return (nil, nil).
func (v *View) Get(key []byte) ([]byte, error) {
	k := string(key)
	if _, ok := v.deletes[k]; ok {
		return nil, nil
	}
	if val, ok := v.writes[k]; ok {
		return val, nil
	}
	return v.store.read(key)
}

// Put buffers a raw write.
func (v *View) Put(key, value []byte) {
	k := string(key)
	delete(v.deletes, k)
	v.writes[k] = value
}

// Delete buffers a raw deletion.
func (v *View) Delete(key []byte) {
	k := string(key)
	delete(v.writes, k)
	v.deletes[k] = struct{}{}
}

// Holders returns every account with a nonzero free balance of the currency
// as seen through the overlay, in ascending account order. Reserved balances
// never appear here.
func (v *View) Holders(currency types.CurrencyID) ([]Holder, error) {
	committed, err := v.store.Holders(currency)
	if err != nil {
		return nil, err
	}
	return v.mergeHolders(string(balancePrefix(currency)), committed)
}

// ReservedHolders returns every account with a nonzero reserved balance of
// the currency as seen through the overlay, in ascending account order.
func (v *View) ReservedHolders(currency types.CurrencyID) ([]Holder, error) {
	committed, err := v.store.ReservedHolders(currency)
	if err != nil {
		return nil, err
	}
	return v.mergeHolders(string(reservedPrefix(currency)), committed)
}

func (v *View) mergeHolders(prefix string, committed []Holder) ([]Holder, error) {
	merged := make(map[types.AccountID]types.Balance, len(committed))
	for _, h := range committed {
		merged[h.Account] = h.Balance
	}
	for k, val := range v.writes {
		if strings.HasPrefix(k, prefix) {
			bal, err := decodeBalance(val, nil)
			if err != nil {
				return nil, err
			}
			merged[types.AccountID(k[len(prefix):])] = bal
		}
	}
	for k := range v.deletes {
		if strings.HasPrefix(k, prefix) {
			delete(merged, types.AccountID(k[len(prefix):]))
		}
	}

	holders := make([]Holder, 0, len(merged))
	for account, bal := range merged {
		if bal == 0 {
			continue
		}
		holders = append(holders, Holder{Account: account, Balance: bal})
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i].Account < holders[j].Account })
	return holders, nil
}

// Savepoint captures the current overlay so a failed compound operation can
// roll back its partial writes without touching earlier ones.
type Savepoint struct {
	writes  map[string][]byte
	deletes map[string]struct{}
}

// Savepoint returns a marker for the view's current contents.
func (v *View) Savepoint() Savepoint {
	sp := Savepoint{
		writes:  make(map[string][]byte, len(v.writes)),
		deletes: make(map[string]struct{}, len(v.deletes)),
	}
	for k, val := range v.writes {
		sp.writes[k] = val
	}
	for k := range v.deletes {
		sp.deletes[k] = struct{}{}
	}
	return sp
}

// Rollback restores the view to a previously captured savepoint.
func (v *View) Rollback(sp Savepoint) {
	v.writes = sp.writes
	v.deletes = sp.deletes
}

// Commit flushes the overlay to the database as one atomic batch and resets
// the view.
func (v *View) Commit(ctx context.Context) error {
	ops := make([]kvdb.BatchOperation, 0, len(v.writes)+len(v.deletes))

	// Deterministic batch order; backends apply it atomically either way,
	// but stable ordering keeps write-ahead logs reproducible.
	keys := make([]string, 0, len(v.writes))
	for k := range v.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ops = append(ops, kvdb.BatchOperation{Type: kvdb.BatchPut, Key: []byte(k), Value: v.writes[k]})
	}

	dels := make([]string, 0, len(v.deletes))
	for k := range v.deletes {
		dels = append(dels, k)
	}
	sort.Strings(dels)
	for _, k := range dels {
		ops = append(ops, kvdb.BatchOperation{Type: kvdb.BatchDelete, Key: []byte(k)})
	}

	if err := v.store.db.Batch(ctx, ops); err != nil {
		return err
	}
	v.Discard()
	return nil
}

// Discard drops all buffered changes.
func (v *View) Discard() {
	v.writes = make(map[string][]byte)
	v.deletes = make(map[string]struct{})
}
