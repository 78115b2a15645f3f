package swap

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/stablemint/serpd/internal/core/types"
)

// State is the lifecycle state of a swap. Open transitions to exactly one of
// Claimed or Cancelled; both are terminal.
type State uint8

const (
	Open State = iota
	Claimed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Claimed:
		return "claimed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are permitted.
func (s State) Terminal() bool { return s != Open }

// ID is the deterministic swap identifier.
type ID [32]byte

// Record is the persisted state of one hash-locked swap. The escrowed funds
// themselves live in the ledger, held by the engine's escrow account; the
// record only tracks the commitment and its lifecycle.
type Record struct {
	ID        ID               `codec:"id"`
	Initiator types.AccountID  `codec:"initiator"`
	Target    types.AccountID  `codec:"target"`
	Currency  types.CurrencyID `codec:"currency"`
	Amount    types.Balance    `codec:"amount"`
	ProofHash [32]byte         `codec:"proof_hash"`
	Deadline  types.Timestamp  `codec:"deadline"`
	State     State            `codec:"state"`
}

// DeriveID computes the swap id from the full set of creation parameters.
// Two creations with identical parameters collide by construction, which is
// what lets the engine reject duplicate concurrent swaps.
func DeriveID(initiator, target types.AccountID, currency types.CurrencyID, amount types.Balance, proofHash [32]byte, deadline types.Timestamp) ID {
	h := sha256.New()
	var buf [8]byte
	writeField := func(b []byte) {
		binary.BigEndian.PutUint64(buf[:], uint64(len(b)))
		h.Write(buf[:])
		h.Write(b)
	}
	writeField([]byte(initiator))
	writeField([]byte(target))
	writeField([]byte(currency))
	binary.BigEndian.PutUint64(buf[:], uint64(amount))
	h.Write(buf[:])
	h.Write(proofHash[:])
	binary.BigEndian.PutUint64(buf[:], uint64(deadline))
	h.Write(buf[:])
	return ID(h.Sum(nil))
}

// HashProof computes the commitment for a proof preimage.
func HashProof(proof []byte) [32]byte {
	return sha256.Sum256(proof)
}
