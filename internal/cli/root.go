// Package cli implements the serpd command line.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stablemint/serpd/internal/config"
	"github.com/stablemint/serpd/internal/storage/auditdb"
	"github.com/stablemint/serpd/internal/storage/kvdb"
	bboltdb "github.com/stablemint/serpd/internal/storage/kvdb/bbolt"
	pebbledb "github.com/stablemint/serpd/internal/storage/kvdb/pebble"
)

// NewRootCmd builds the serpd command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "serpd",
		Short:         "serpd manages an elastic-supply multi-currency ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	root.AddCommand(
		newVersionCmd(),
		newInspectCmd(&cfgFile),
		newRebalanceCmd(&cfgFile),
		newSnapshotCmd(&cfgFile),
	)
	return root
}

// Execute runs the command tree and reports failure on stderr.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile string) (*config.Config, error) {
	return config.Load(cfgFile)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// openAudit opens the configured audit trail backend. A nil store means the
// trail is disabled.
func openAudit(cfg *config.Config) (auditdb.Store, error) {
	switch cfg.Audit.Backend {
	case "none":
		return nil, nil
	case "sqlite":
		return auditdb.OpenSQLite(cfg.Audit.DSN)
	case "postgres":
		return auditdb.OpenPostgres(cfg.Audit.DSN)
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Audit.Backend)
	}
}

func openStorage(cfg *config.Config) (kvdb.DB, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return kvdb.NewMemoryDB(), nil
	case "bbolt":
		return bboltdb.Open(cfg.Storage.Path)
	case "pebble":
		return pebbledb.Open(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
