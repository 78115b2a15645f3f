package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stablemint/serpd/internal/core/snapshot"
)

func newSnapshotCmd(cfgFile *string) *cobra.Command {
	snap := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the full ledger state",
	}

	snap.AddCommand(&cobra.Command{
		Use:   "export <file>",
		Short: "Write a compressed state snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile)
			if err != nil {
				return err
			}
			db, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := snapshot.Export(cmd.Context(), db, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger := newLogger(cfg)
			logger.Info().Str("file", args[0]).Msg("snapshot exported")
			return nil
		},
	})

	snap.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Load a state snapshot into the configured storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile)
			if err != nil {
				return err
			}
			db, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if err := snapshot.Import(cmd.Context(), db, f); err != nil {
				return err
			}
			logger := newLogger(cfg)
			logger.Info().Str("file", args[0]).Msg("snapshot imported")
			return nil
		},
	})

	return snap
}
