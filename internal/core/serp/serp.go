// Package serp implements the elastic supply adjuster: it compares the
// basket price of a currency against its target peg and expands or contracts
// the supply proportionally across all current holders.
package serp

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/stablemint/serpd/internal/core/basket"
	"github.com/stablemint/serpd/internal/core/ledger"
	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
)

// ErrZeroPeg is returned when the adjuster is configured with a zero target
// peg, which would make the deviation ratio undefined.
var ErrZeroPeg = errors.New("zero peg price")

// Direction states which way an adjustment moved the supply.
type Direction int

const (
	// Hold means the basket price was within tolerance of the peg.
	Hold Direction = iota
	// Expand means supply was minted to push the price down toward the peg.
	Expand
	// Contract means supply was burned to push the price up toward the peg.
	Contract
)

func (d Direction) String() string {
	switch d {
	case Expand:
		return "expand"
	case Contract:
		return "contract"
	default:
		return "hold"
	}
}

// Adjustment is the outcome of one adjuster run. Applied can fall short of
// Amount during a contraction when holder balances saturate.
type Adjustment struct {
	Direction   Direction
	BasketPrice types.Price
	Amount      types.Balance
	Applied     types.Balance
}

// Config is the adjuster's immutable per-currency configuration.
type Config struct {
	Currency types.CurrencyID

	// Peg is the target basket price.
	Peg types.Price

	// Tolerance is the absolute deviation from the peg below which no
	// adjustment is made.
	Tolerance types.Price

	// Weights define the basket evaluated against the peg.
	Weights basket.Weights
}

// Adjuster drives supply toward the peg. It owns no state of its own; every
// run reads and mutates the ledger through the caller's view.
type Adjuster struct {
	cfg    Config
	ledger *ledger.Ledger
	basket *basket.Engine
}

func NewAdjuster(cfg Config, l *ledger.Ledger, b *basket.Engine) (*Adjuster, error) {
	if cfg.Peg.IsZero() {
		return nil, ErrZeroPeg
	}
	return &Adjuster{cfg: cfg, ledger: l, basket: b}, nil
}

// Run evaluates the basket price and applies at most one supply adjustment.
// A failed run leaves the view untouched.
func (a *Adjuster) Run(v *store.View) (Adjustment, error) {
	price, err := a.basket.BasketPrice(v, a.cfg.Weights)
	if err != nil {
		return Adjustment{}, fmt.Errorf("evaluating basket for %s: %w", a.cfg.Currency, err)
	}

	deviation := price.Sub(a.cfg.Peg)
	if deviation.Cmp(a.cfg.Tolerance) <= 0 {
		return Adjustment{Direction: Hold, BasketPrice: price}, nil
	}

	issuance, err := a.ledger.Issuance(v, a.cfg.Currency)
	if err != nil {
		return Adjustment{}, err
	}
	amount := proportionalAmount(issuance, deviation, a.cfg.Peg)
	if amount == 0 {
		return Adjustment{Direction: Hold, BasketPrice: price}, nil
	}

	sp := v.Savepoint()
	adj := Adjustment{BasketPrice: price, Amount: amount}
	if price.Cmp(a.cfg.Peg) > 0 {
		adj.Direction = Expand
		adj.Applied, err = a.ExpandSupply(v, amount)
	} else {
		adj.Direction = Contract
		adj.Applied, err = a.ContractSupply(v, amount)
	}
	if err != nil {
		v.Rollback(sp)
		return Adjustment{}, err
	}
	return adj, nil
}

// proportionalAmount scales the issuance by the relative deviation from the
// peg: issuance × deviation ÷ peg, truncated to whole units.
func proportionalAmount(issuance types.Balance, deviation, peg types.Price) types.Balance {
	num := new(big.Int).Mul(
		new(big.Int).SetUint64(uint64(issuance)),
		big.NewInt(deviation.Mantissa()),
	)
	num.Quo(num, big.NewInt(peg.Mantissa()))
	if !num.IsUint64() {
		return types.MaxBalance
	}
	return types.Balance(num.Uint64())
}

// ExpandSupply mints amount distributed across existing holders proportional
// to their current balance share. The minted shares sum to exactly amount.
// With no holders the expansion is a no-op.
func (a *Adjuster) ExpandSupply(v *store.View, amount types.Balance) (types.Balance, error) {
	holders, err := v.Holders(a.cfg.Currency)
	if err != nil {
		return 0, err
	}
	if len(holders) == 0 || amount == 0 {
		return 0, nil
	}

	shares := apportion(holders, amount)
	var minted types.Balance
	for i, h := range holders {
		if shares[i] == 0 {
			continue
		}
		if err := a.ledger.Mint(v, h.Account, a.cfg.Currency, shares[i]); err != nil {
			return 0, fmt.Errorf("minting to %s: %w", h.Account, err)
		}
		minted += shares[i]
	}
	return minted, nil
}

// ContractSupply burns amount from holders pro-rata, saturating at each
// holder's balance. The shortfall left by saturated holders is redistributed
// among the remaining holders in a single second pass; the returned total can
// therefore still fall short of amount when overall capacity runs out.
func (a *Adjuster) ContractSupply(v *store.View, amount types.Balance) (types.Balance, error) {
	holders, err := v.Holders(a.cfg.Currency)
	if err != nil {
		return 0, err
	}
	if len(holders) == 0 || amount == 0 {
		return 0, nil
	}

	burned := make([]types.Balance, len(holders))
	var total, shortfall types.Balance
	for i, share := range apportion(holders, amount) {
		take := share
		if take > holders[i].Balance {
			shortfall += take - holders[i].Balance
			take = holders[i].Balance
		}
		burned[i] = take
		total += take
	}

	if shortfall > 0 {
		// Second pass over the holders that still have capacity, weighted
		// by what they have left.
		remaining := make([]store.Holder, 0, len(holders))
		index := make([]int, 0, len(holders))
		for i, h := range holders {
			if left := h.Balance - burned[i]; left > 0 {
				remaining = append(remaining, store.Holder{Account: h.Account, Balance: left})
				index = append(index, i)
			}
		}
		for j, extra := range apportion(remaining, shortfall) {
			if extra > remaining[j].Balance {
				extra = remaining[j].Balance
			}
			burned[index[j]] += extra
			total += extra
		}
	}

	for i, h := range holders {
		if burned[i] == 0 {
			continue
		}
		if err := a.ledger.Burn(v, h.Account, a.cfg.Currency, burned[i]); err != nil {
			return 0, fmt.Errorf("burning from %s: %w", h.Account, err)
		}
	}
	return total, nil
}
