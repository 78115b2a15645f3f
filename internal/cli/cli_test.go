package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemint/serpd/internal/config"
	"github.com/stablemint/serpd/internal/core/basket"
	"github.com/stablemint/serpd/internal/core/ledger"
	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
	bboltdb "github.com/stablemint/serpd/internal/storage/kvdb/bbolt"
)

func TestOpenAudit(t *testing.T) {
	t.Run("none is disabled", func(t *testing.T) {
		audit, err := openAudit(&config.Config{Audit: config.Audit{Backend: "none"}})
		require.NoError(t, err)
		assert.Nil(t, audit)
	})

	t.Run("sqlite", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "audit.db")
		audit, err := openAudit(&config.Config{Audit: config.Audit{Backend: "sqlite", DSN: dsn}})
		require.NoError(t, err)
		require.NotNil(t, audit)
		require.NoError(t, audit.Close())
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := openAudit(&config.Config{Audit: config.Audit{Backend: "oracle"}})
		assert.ErrorContains(t, err, "unknown audit backend")
	})
}

func TestRebalanceCommand(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.db")

	// Seed the state: 1000 units held by alice, basket price 10% above peg.
	db, err := bboltdb.Open(statePath)
	require.NoError(t, err)
	l := ledger.New(ledger.Params{NativeCurrency: "DNAR"})
	engine, err := basket.NewEngine(nil)
	require.NoError(t, err)
	v := store.New(db).NewView()
	require.NoError(t, l.Mint(v, "alice", "SETT-USD", 1000))
	price, err := types.ParsePrice("1.1")
	require.NoError(t, err)
	require.NoError(t, engine.SetPrice(v, "USD", price, 1))
	require.NoError(t, v.Commit(context.Background()))
	require.NoError(t, db.Close())

	cfgPath := filepath.Join(dir, "serpd.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
native_currency = "DNAR"
currencies = ["DNAR", "SETT-USD"]

[storage]
backend = "bbolt"
path = "`+statePath+`"

[audit]
backend = "sqlite"
dsn = "`+filepath.Join(dir, "audit.db")+`"

[[pegs]]
currency = "SETT-USD"
target = "1.0"
tolerance = "0.01"

[[pegs.weights]]
currency = "USD"
weight = "1"
`), 0o600))

	root := NewRootCmd()
	root.SetArgs([]string{"rebalance", "SETT-USD", "--config", cfgPath, "--now", "2"})
	require.NoError(t, root.Execute())

	// 10% above peg expanded the supply by 10%, all of it to alice.
	db, err = bboltdb.Open(statePath)
	require.NoError(t, err)
	defer db.Close()
	bal, err := store.New(db).GetBalance("alice", "SETT-USD")
	require.NoError(t, err)
	assert.Equal(t, types.Balance(1100), bal)
}
