// Package basket implements the price basket engine: it records per-currency
// price points (from manual overrides or an external oracle) and combines
// them into a single weighted basket price consumed by the supply adjuster.
package basket

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
)

// PricePoint is the active price of one currency. Each currency has at most
// one, last write wins.
type PricePoint struct {
	Currency      types.CurrencyID `codec:"currency"`
	PriceMantissa int64            `codec:"price"`
	Timestamp     types.Timestamp  `codec:"timestamp"`
}

// Price returns the point's price as a fixed-point value.
func (pp PricePoint) Price() (types.Price, error) {
	return types.PriceFromMantissa(pp.PriceMantissa)
}

// Weights maps peg currencies to their basket weight. Weights over a basket
// sum to 1.0 by convention, but the engine does not enforce that.
type Weights map[types.CurrencyID]types.Price

// basketCacheSize bounds the evaluation memo. Baskets are small and weight
// sets rarely change, so a modest cache absorbs the repeated evaluations the
// adjuster performs each cycle.
const basketCacheSize = 128

// Engine records price points and evaluates basket prices.
type Engine struct {
	oracle Oracle
	memo   *lru.Cache[[32]byte, types.Price]

	// fetchLimit bounds concurrent oracle calls in FetchAll.
	fetchLimit int
}

func NewEngine(oracle Oracle) (*Engine, error) {
	memo, err := lru.New[[32]byte, types.Price](basketCacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{oracle: oracle, memo: memo, fetchLimit: 8}, nil
}

// SetPrice unconditionally overwrites the currency's price point with the
// given value at the given time.
func (e *Engine) SetPrice(v *store.View, currency types.CurrencyID, price types.Price, now types.Timestamp) error {
	pp := PricePoint{
		Currency:      currency,
		PriceMantissa: price.Mantissa(),
		Timestamp:     now,
	}
	data, err := store.EncodeRecord(pp)
	if err != nil {
		return err
	}
	v.Put(store.PriceKey(currency), data)
	return nil
}

// PricePoint returns the currency's active price point, or ErrMissingPeg if
// none has been recorded.
func (e *Engine) PricePoint(v *store.View, currency types.CurrencyID) (PricePoint, error) {
	data, err := v.Get(store.PriceKey(currency))
	if err != nil {
		return PricePoint{}, err
	}
	if data == nil {
		return PricePoint{}, fmt.Errorf("%w: %s", ErrMissingPeg, currency)
	}
	var pp PricePoint
	if err := store.DecodeRecord(data, &pp); err != nil {
		return PricePoint{}, err
	}
	return pp, nil
}

// FetchPriceFor obtains the currency's price from the oracle and records it.
// On oracle failure the previous price point is retained unchanged and the
// call reports ErrOracleUnavailable.
func (e *Engine) FetchPriceFor(ctx context.Context, v *store.View, currency types.CurrencyID, now types.Timestamp) error {
	price, err := e.oracle.Fetch(ctx, currency)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOracleUnavailable, currency, err)
	}
	return e.SetPrice(v, currency, price, now)
}

// FetchAll refreshes every listed currency from the oracle concurrently.
// Currencies whose fetch fails keep their previous price point; the combined
// error names each of them.
func (e *Engine) FetchAll(ctx context.Context, v *store.View, currencies []types.CurrencyID, now types.Timestamp) error {
	type result struct {
		price types.Price
		err   error
	}
	results := make([]result, len(currencies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fetchLimit)
	for i, currency := range currencies {
		i, currency := i, currency
		g.Go(func() error {
			price, err := e.oracle.Fetch(gctx, currency)
			results[i] = result{price: price, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Writes happen sequentially after all fetches so the view mutation
	// order stays deterministic.
	var errs []error
	for i, currency := range currencies {
		if results[i].err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrOracleUnavailable, currency, results[i].err))
			continue
		}
		if err := e.SetPrice(v, currency, results[i].price, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BasketPrice computes Σ(weight_i × price_i) over the currencies present in
// weights, rounding half-to-even at the smallest unit. It fails with
// ErrMissingPeg if any referenced currency lacks a price point. The function
// has no side effects; identical inputs always yield the identical output,
// which makes the evaluation safe to memoize.
func (e *Engine) BasketPrice(v *store.View, weights Weights) (types.Price, error) {
	currencies := make([]types.CurrencyID, 0, len(weights))
	for currency := range weights {
		currencies = append(currencies, currency)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	points := make([]PricePoint, len(currencies))
	for i, currency := range currencies {
		pp, err := e.PricePoint(v, currency)
		if err != nil {
			return types.Price{}, err
		}
		points[i] = pp
	}

	key := basketKey(currencies, weights, points)
	if cached, ok := e.memo.Get(key); ok {
		return cached, nil
	}

	var sum types.Price
	for i, currency := range currencies {
		price, err := points[i].Price()
		if err != nil {
			return types.Price{}, err
		}
		term, err := weights[currency].Mul(price)
		if err != nil {
			return types.Price{}, fmt.Errorf("weighting %s: %w", currency, err)
		}
		sum, err = sum.Add(term)
		if err != nil {
			return types.Price{}, err
		}
	}

	e.memo.Add(key, sum)
	return sum, nil
}

// basketKey digests the full evaluation input, so the memo can never serve a
// value computed from different weights or prices.
func basketKey(currencies []types.CurrencyID, weights Weights, points []PricePoint) [32]byte {
	h := sha256.New()
	var buf [8]byte
	for i, currency := range currencies {
		h.Write([]byte(currency))
		h.Write([]byte{0})
		binary.BigEndian.PutUint64(buf[:], uint64(weights[currency].Mantissa()))
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], uint64(points[i].PriceMantissa))
		h.Write(buf[:])
	}
	return [32]byte(h.Sum(nil))
}
