// Package ledgertest provides shared fixtures for tests that exercise the
// ledger core against an in-memory store.
package ledgertest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stablemint/serpd/internal/core/ledger"
	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
	"github.com/stablemint/serpd/internal/storage/kvdb"
)

// NewStore returns a store over a fresh in-memory database.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(kvdb.NewMemoryDB())
}

// NewLedger returns a ledger with the given native currency and no minimum
// balances, alongside a fresh store and an open view.
func NewLedger(t *testing.T, native types.CurrencyID) (*ledger.Ledger, *store.Store, *store.View) {
	t.Helper()
	s := NewStore(t)
	l := ledger.New(ledger.Params{NativeCurrency: native})
	return l, s, s.NewView()
}

// Fund mints amount of currency to the account and fails the test on error.
func Fund(t *testing.T, l *ledger.Ledger, v *store.View, account types.AccountID, currency types.CurrencyID, amount types.Balance) {
	t.Helper()
	require.NoError(t, l.Mint(v, account, currency, amount))
}

// RequireInvariant asserts that the currency's holder balances sum to its
// issuance.
func RequireInvariant(t *testing.T, l *ledger.Ledger, v *store.View, currency types.CurrencyID) {
	t.Helper()
	require.NoError(t, l.CheckInvariant(v, currency))
}
