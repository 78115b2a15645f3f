package basket

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
	"github.com/stablemint/serpd/internal/storage/kvdb"
)

const (
	pegUSD = types.CurrencyID("USD")
	pegEUR = types.CurrencyID("EUR")
)

func newTestView(t *testing.T) *store.View {
	t.Helper()
	return store.New(kvdb.NewMemoryDB()).NewView()
}

func price(t *testing.T, s string) types.Price {
	t.Helper()
	p, err := types.ParsePrice(s)
	require.NoError(t, err)
	return p
}

func TestSetPriceLastWriteWins(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)
	v := newTestView(t)

	require.NoError(t, engine.SetPrice(v, pegUSD, price(t, "1.00"), 10))
	require.NoError(t, engine.SetPrice(v, pegUSD, price(t, "1.05"), 20))

	pp, err := engine.PricePoint(v, pegUSD)
	require.NoError(t, err)
	assert.Equal(t, price(t, "1.05").Mantissa(), pp.PriceMantissa)
	assert.Equal(t, types.Timestamp(20), pp.Timestamp)
}

func TestPricePointMissing(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)
	v := newTestView(t)

	_, err = engine.PricePoint(v, pegUSD)
	assert.ErrorIs(t, err, ErrMissingPeg)
}

func TestFetchPriceFor(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := NewMockOracle(ctrl)
	engine, err := NewEngine(oracle)
	require.NoError(t, err)
	v := newTestView(t)

	oracle.EXPECT().Fetch(gomock.Any(), pegUSD).Return(price(t, "1.02"), nil)
	require.NoError(t, engine.FetchPriceFor(context.Background(), v, pegUSD, 42))

	pp, err := engine.PricePoint(v, pegUSD)
	require.NoError(t, err)
	assert.Equal(t, price(t, "1.02").Mantissa(), pp.PriceMantissa)
	assert.Equal(t, types.Timestamp(42), pp.Timestamp)
}

func TestFetchFailureRetainsPreviousPrice(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := NewMockOracle(ctrl)
	engine, err := NewEngine(oracle)
	require.NoError(t, err)
	v := newTestView(t)

	require.NoError(t, engine.SetPrice(v, pegUSD, price(t, "1.00"), 10))

	oracle.EXPECT().Fetch(gomock.Any(), pegUSD).Return(types.Price{}, errors.New("feed down"))
	err = engine.FetchPriceFor(context.Background(), v, pegUSD, 20)
	assert.ErrorIs(t, err, ErrOracleUnavailable)

	pp, err := engine.PricePoint(v, pegUSD)
	require.NoError(t, err)
	assert.Equal(t, price(t, "1.00").Mantissa(), pp.PriceMantissa)
	assert.Equal(t, types.Timestamp(10), pp.Timestamp)
}

func TestFetchAllPartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := NewMockOracle(ctrl)
	engine, err := NewEngine(oracle)
	require.NoError(t, err)
	v := newTestView(t)

	oracle.EXPECT().Fetch(gomock.Any(), pegUSD).Return(price(t, "1.01"), nil)
	oracle.EXPECT().Fetch(gomock.Any(), pegEUR).Return(types.Price{}, errors.New("feed down"))

	err = engine.FetchAll(context.Background(), v, []types.CurrencyID{pegUSD, pegEUR}, 30)
	assert.ErrorIs(t, err, ErrOracleUnavailable)

	// The healthy feed was still recorded.
	pp, err := engine.PricePoint(v, pegUSD)
	require.NoError(t, err)
	assert.Equal(t, price(t, "1.01").Mantissa(), pp.PriceMantissa)

	_, err = engine.PricePoint(v, pegEUR)
	assert.ErrorIs(t, err, ErrMissingPeg)
}

func TestBasketPrice(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)
	v := newTestView(t)

	require.NoError(t, engine.SetPrice(v, pegUSD, price(t, "1.00"), 1))
	require.NoError(t, engine.SetPrice(v, pegEUR, price(t, "1.10"), 1))

	weights := Weights{
		pegUSD: price(t, "0.6"),
		pegEUR: price(t, "0.4"),
	}

	// 0.6×1.00 + 0.4×1.10 = 1.04
	got, err := engine.BasketPrice(v, weights)
	require.NoError(t, err)
	assert.Equal(t, price(t, "1.04").Mantissa(), got.Mantissa())

	// Unchanged inputs yield the identical output.
	again, err := engine.BasketPrice(v, weights)
	require.NoError(t, err)
	assert.Equal(t, got.Mantissa(), again.Mantissa())
}

func TestBasketPriceMissingPeg(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)
	v := newTestView(t)

	require.NoError(t, engine.SetPrice(v, pegUSD, price(t, "1.00"), 1))

	_, err = engine.BasketPrice(v, Weights{pegUSD: price(t, "0.5"), pegEUR: price(t, "0.5")})
	assert.ErrorIs(t, err, ErrMissingPeg)
}

func TestBasketPriceFollowsUpdates(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)
	v := newTestView(t)

	weights := Weights{pegUSD: price(t, "1")}
	require.NoError(t, engine.SetPrice(v, pegUSD, price(t, "1.00"), 1))
	got, err := engine.BasketPrice(v, weights)
	require.NoError(t, err)
	assert.Equal(t, price(t, "1.00").Mantissa(), got.Mantissa())

	// A price update must not be masked by the memo.
	require.NoError(t, engine.SetPrice(v, pegUSD, price(t, "1.20"), 2))
	got, err = engine.BasketPrice(v, weights)
	require.NoError(t, err)
	assert.Equal(t, price(t, "1.20").Mantissa(), got.Mantissa())
}
