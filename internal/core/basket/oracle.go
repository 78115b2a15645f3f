package basket

//go:generate mockgen -source=oracle.go -destination=mock_oracle.go -package=basket

import (
	"context"

	"github.com/stablemint/serpd/internal/core/types"
)

// Oracle supplies reference prices for peg currencies. Implementations live
// outside the core; the engine only requires that a failed fetch returns an
// error rather than a stale or zero price.
type Oracle interface {
	Fetch(ctx context.Context, currency types.CurrencyID) (types.Price, error)
}
