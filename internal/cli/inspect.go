package cli

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stablemint/serpd/internal/core/basket"
	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/swap"
	"github.com/stablemint/serpd/internal/core/types"
	"github.com/stablemint/serpd/internal/storage/kvdb"
)

func newInspectCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <currency>",
		Short: "Print issuance, price point and holders of a currency",
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

			currency := types.CurrencyID(args[0])
			s := store.New(db)
			v := s.NewView()

			issuance, err := v.GetIssuance(currency)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "currency:  %s\n", currency)
			fmt.Fprintf(cmd.OutOrStdout(), "issuance:  %d\n", issuance)

			engine, err := basket.NewEngine(nil)
			if err != nil {
				return err
			}
			pp, err := engine.PricePoint(v, currency)
			switch {
			case err == nil:
				price, err := pp.Price()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "price:     %s (at %d)\n", price, pp.Timestamp)
			case errors.Is(err, basket.ErrMissingPeg):
				fmt.Fprintln(cmd.OutOrStdout(), "price:     none")
			default:
				return err
			}

			holders, err := v.Holders(currency)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "holders:   %d\n", len(holders))
			for _, h := range holders {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-32q %d\n", string(h.Account), h.Balance)
			}

			return printSwaps(cmd, db, currency)
		},
	}
}

func printSwaps(cmd *cobra.Command, db kvdb.DB, currency types.CurrencyID) error {
	start, end := store.SwapKeyRange()
	iter, err := db.Iterator(cmd.Context(), start, end)
	if err != nil {
		return err
	}
	defer iter.Close()

	n := 0
	for iter.Next() {
		var rec swap.Record
		if err := store.DecodeRecord(iter.Value(), &rec); err != nil {
			return err
		}
		if rec.Currency != currency {
			continue
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "swaps:")
		}
		n++
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %-9s %q -> %q amount=%d deadline=%d\n",
			hex.EncodeToString(rec.ID[:8]), rec.State, string(rec.Initiator), string(rec.Target), rec.Amount, rec.Deadline)
	}
	if err := iter.Error(); err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "swaps:     none")
	}
	return nil
}
