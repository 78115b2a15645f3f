// Package swap implements the hash-locked atomic swap engine. A swap escrows
// the initiator's funds behind a proof-hash commitment and a deadline: the
// target claims by revealing the preimage before the deadline, otherwise the
// initiator cancels and recovers the funds.
//
// The engine owns the swap records but never touches balances directly;
// escrow uses the ledger's reserve family, so the locked amount stays
// committed to the initiator while being excluded from transfers and holder
// iteration until the swap resolves.
package swap

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/stablemint/serpd/internal/core/ledger"
	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
)

// Engine drives the swap state machine against the caller's view. Time is an
// explicit argument on every deadline-sensitive transition; there is no
// scheduler, expiry only matters at the moment a transition is attempted.
type Engine struct {
	ledger *ledger.Ledger
}

func NewEngine(l *ledger.Ledger) *Engine {
	return &Engine{ledger: l}
}

// Get returns the record for the id, or ErrSwapNotFound.
func (e *Engine) Get(v *store.View, id ID) (Record, error) {
	data, err := v.Get(store.SwapKey(id[:]))
	if err != nil {
		return Record{}, err
	}
	if data == nil {
		return Record{}, ErrSwapNotFound
	}
	var rec Record
	if err := store.DecodeRecord(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (e *Engine) put(v *store.View, rec Record) error {
	data, err := store.EncodeRecord(rec)
	if err != nil {
		return err
	}
	v.Put(store.SwapKey(rec.ID[:]), data)
	return nil
}

// Create reserves amount of currency on the initiator and opens a swap
// claimable by target against the proof hash until the deadline. Fails with
// ErrDuplicateSwap while a swap with identical parameters is still open, and
// with the ledger's ErrInsufficientBalance when the initiator's free balance
// cannot cover the escrow. A finalized swap's id may be reused.
func (e *Engine) Create(v *store.View, initiator, target types.AccountID, currency types.CurrencyID, amount types.Balance, proofHash [32]byte, deadline types.Timestamp) (Record, error) {
	id := DeriveID(initiator, target, currency, amount, proofHash, deadline)

	existing, err := e.Get(v, id)
	switch {
	case err == nil:
		if !existing.State.Terminal() {
			return Record{}, ErrDuplicateSwap
		}
	case !errors.Is(err, ErrSwapNotFound):
		return Record{}, err
	}

	sp := v.Savepoint()
	if err := e.ledger.Reserve(v, initiator, currency, amount); err != nil {
		return Record{}, fmt.Errorf("escrowing swap funds: %w", err)
	}

	rec := Record{
		ID:        id,
		Initiator: initiator,
		Target:    target,
		Currency:  currency,
		Amount:    amount,
		ProofHash: proofHash,
		Deadline:  deadline,
		State:     Open,
	}
	if err := e.put(v, rec); err != nil {
		v.Rollback(sp)
		return Record{}, err
	}
	return rec, nil
}

// Claim releases the escrowed funds to the target in exchange for the proof
// preimage. A claim after the deadline is rejected even with a valid proof;
// cancellation is then the only remaining path. A failed claim leaves the
// record Open and the escrow in place.
func (e *Engine) Claim(v *store.View, claimant types.AccountID, id ID, proof []byte, now types.Timestamp) error {
	rec, err := e.Get(v, id)
	if err != nil {
		return err
	}
	if rec.State.Terminal() {
		return ErrAlreadyFinalized
	}
	if claimant != rec.Target {
		return ErrNotTarget
	}
	if sha256.Sum256(proof) != rec.ProofHash {
		return ErrInvalidProof
	}
	if now > rec.Deadline {
		return ErrExpired
	}

	sp := v.Savepoint()
	if err := e.release(v, rec, rec.Target); err != nil {
		return err
	}
	rec.State = Claimed
	if err := e.put(v, rec); err != nil {
		v.Rollback(sp)
		return err
	}
	return nil
}

// Cancel returns the escrowed funds to the initiator. Only the initiator may
// cancel, and only strictly after the deadline.
func (e *Engine) Cancel(v *store.View, canceller types.AccountID, id ID, now types.Timestamp) error {
	rec, err := e.Get(v, id)
	if err != nil {
		return err
	}
	if rec.State.Terminal() {
		return ErrAlreadyFinalized
	}
	if canceller != rec.Initiator {
		return ErrNotInitiator
	}
	if now <= rec.Deadline {
		return ErrNotYetExpired
	}

	sp := v.Savepoint()
	if err := e.release(v, rec, rec.Initiator); err != nil {
		return err
	}
	rec.State = Cancelled
	if err := e.put(v, rec); err != nil {
		v.Rollback(sp)
		return err
	}
	return nil
}

// release moves the full escrowed amount from the initiator's reserve to the
// beneficiary's free balance. An open record always has its amount reserved,
// so a partial move means the state is corrupt and the transition aborts.
func (e *Engine) release(v *store.View, rec Record, beneficiary types.AccountID) error {
	moved, err := e.ledger.RepatriateReserved(v, rec.Initiator, beneficiary, rec.Currency, rec.Amount)
	if err != nil {
		return fmt.Errorf("releasing swap escrow: %w", err)
	}
	if moved != rec.Amount {
		return fmt.Errorf("releasing swap escrow: reserved %d of %d", moved, rec.Amount)
	}
	return nil
}
