// Package auditdb persists an append-only audit trail of supply adjustments
// and swap transitions in a relational database, for operators and offline
// reconciliation. It is observational only; the ledger never reads it back.
package auditdb

import "context"

// SupplyEvent is one supply adjuster run that moved (or held) the supply.
type SupplyEvent struct {
	Currency    string
	Direction   string
	BasketPrice string
	Requested   uint64
	Applied     uint64
	Timestamp   uint64
}

// SwapEvent is one swap state transition.
type SwapEvent struct {
	SwapID    string
	Initiator string
	Target    string
	Currency  string
	Amount    uint64
	State     string
	Timestamp uint64
}

// Store is an audit trail backend.
type Store interface {
	RecordSupplyEvent(ctx context.Context, ev SupplyEvent) error
	RecordSwapEvent(ctx context.Context, ev SwapEvent) error
	Close() error
}
