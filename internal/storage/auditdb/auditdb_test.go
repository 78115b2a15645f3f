package auditdb

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemint/serpd/internal/core/serp"
	"github.com/stablemint/serpd/internal/core/swap"
)

func TestSQLiteStoreRecords(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.RecordSupplyEvent(ctx, SupplyEvent{
		Currency:    "SETT-USD",
		Direction:   "expand",
		BasketPrice: "1.1",
		Requested:   100,
		Applied:     100,
		Timestamp:   42,
	}))
	require.NoError(t, s.RecordSwapEvent(ctx, SwapEvent{
		SwapID:    "deadbeef",
		Initiator: "alice",
		Target:    "bob",
		Currency:  "SETT-USD",
		Amount:    40,
		State:     "open",
		Timestamp: 42,
	}))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM supply_events`).Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM swap_events WHERE swap_id = 'deadbeef'`).Scan(&count))
	assert.Equal(t, 1, count)
}

// failStore forces the recorder down its error path.
type failStore struct{}

func (failStore) RecordSupplyEvent(context.Context, SupplyEvent) error {
	return errors.New("insert failed")
}
func (failStore) RecordSwapEvent(context.Context, SwapEvent) error {
	return errors.New("insert failed")
}
func (failStore) Close() error { return nil }

func TestRecorderSwallowsFailures(t *testing.T) {
	rec := NewRecorder(failStore{}, zerolog.New(io.Discard))

	// Audit is best effort: these must not panic or propagate the error.
	rec.Adjustment(context.Background(), "SETT-USD", serp.Adjustment{Direction: serp.Expand}, 1)
	rec.SwapTransition(context.Background(), swap.Record{State: swap.Open}, 1)
}

func TestRecorderWritesThrough(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	rec := NewRecorder(s, zerolog.New(io.Discard))
	defer rec.Close()

	rec.Adjustment(context.Background(), "SETT-USD", serp.Adjustment{
		Direction: serp.Contract,
		Amount:    100,
		Applied:   90,
	}, 7)

	var direction string
	var applied int64
	require.NoError(t, s.db.QueryRow(`SELECT direction, applied FROM supply_events`).Scan(&direction, &applied))
	assert.Equal(t, "contract", direction)
	assert.Equal(t, int64(90), applied)
}
