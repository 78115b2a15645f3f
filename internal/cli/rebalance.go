package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stablemint/serpd/internal/core/basket"
	"github.com/stablemint/serpd/internal/core/ledger"
	"github.com/stablemint/serpd/internal/core/serp"
	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
	"github.com/stablemint/serpd/internal/storage/auditdb"
)

func newRebalanceCmd(cfgFile *string) *cobra.Command {
	var now int64

	cmd := &cobra.Command{
		Use:   "rebalance <currency>",
		Short: "Run one supply adjustment for a pegged currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			peg, ok := cfg.Peg(args[0])
			if !ok {
				return fmt.Errorf("no peg configured for currency %q", args[0])
			}
			serpCfg, err := peg.Config()
			if err != nil {
				return err
			}

			db, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			audit, err := openAudit(cfg)
			if err != nil {
				return err
			}
			if audit != nil {
				defer audit.Close()
			}

			engine, err := basket.NewEngine(nil)
			if err != nil {
				return err
			}
			l := ledger.New(cfg.LedgerParams())
			adj, err := serp.NewAdjuster(serpCfg, l, engine)
			if err != nil {
				return err
			}

			v := store.New(db).NewView()
			res, err := adj.Run(v)
			if err != nil {
				return err
			}
			if err := v.Commit(cmd.Context()); err != nil {
				return err
			}

			if audit != nil {
				rec := auditdb.NewRecorder(audit, log)
				rec.Adjustment(cmd.Context(), serpCfg.Currency, res, types.Timestamp(now))
			}
			log.Info().
				Str("currency", string(serpCfg.Currency)).
				Str("direction", res.Direction.String()).
				Str("basket_price", res.BasketPrice.String()).
				Uint64("requested", uint64(res.Amount)).
				Uint64("applied", uint64(res.Applied)).
				Msg("supply adjustment applied")
			return nil
		},
	}
	cmd.Flags().Int64Var(&now, "now", time.Now().Unix(), "timestamp recorded with the adjustment")
	return cmd
}
