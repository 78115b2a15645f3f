package auditdb

import (
	"context"
	"encoding/hex"

	"github.com/rs/zerolog"

	"github.com/stablemint/serpd/internal/core/serp"
	"github.com/stablemint/serpd/internal/core/swap"
	"github.com/stablemint/serpd/internal/core/types"
)

// Recorder translates core events into audit rows. Audit writes are best
// effort: a failed insert is logged and swallowed so the ledger operation it
// describes is never blocked by the trail.
type Recorder struct {
	store Store
	log   zerolog.Logger
}

func NewRecorder(store Store, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Adjustment records the outcome of a supply adjuster run.
func (r *Recorder) Adjustment(ctx context.Context, currency types.CurrencyID, adj serp.Adjustment, now types.Timestamp) {
	ev := SupplyEvent{
		Currency:    string(currency),
		Direction:   adj.Direction.String(),
		BasketPrice: adj.BasketPrice.String(),
		Requested:   uint64(adj.Amount),
		Applied:     uint64(adj.Applied),
		Timestamp:   uint64(now),
	}
	if err := r.store.RecordSupplyEvent(ctx, ev); err != nil {
		r.log.Error().Err(err).
			Str("currency", ev.Currency).
			Str("direction", ev.Direction).
			Msg("failed to record supply event")
	}
}

// SwapTransition records a swap entering the given state.
func (r *Recorder) SwapTransition(ctx context.Context, rec swap.Record, now types.Timestamp) {
	ev := SwapEvent{
		SwapID:    hex.EncodeToString(rec.ID[:]),
		Initiator: string(rec.Initiator),
		Target:    string(rec.Target),
		Currency:  string(rec.Currency),
		Amount:    uint64(rec.Amount),
		State:     rec.State.String(),
		Timestamp: uint64(now),
	}
	if err := r.store.RecordSwapEvent(ctx, ev); err != nil {
		r.log.Error().Err(err).
			Str("swap_id", ev.SwapID).
			Str("state", ev.State).
			Msg("failed to record swap event")
	}
}

func (r *Recorder) Close() error {
	return r.store.Close()
}
