package serp

import (
	"math/big"
	"sort"

	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
)

// apportion splits amount across holders proportionally to their balance
// share using the largest-remainder method, so the shares always sum to
// exactly amount. Ties between equal remainders go to the holder earlier in
// account order, keeping the result deterministic. Holders must be sorted by
// account and hold a nonzero total.
func apportion(holders []store.Holder, amount types.Balance) []types.Balance {
	shares := make([]types.Balance, len(holders))
	if amount == 0 || len(holders) == 0 {
		return shares
	}

	total := new(big.Int)
	for _, h := range holders {
		total.Add(total, new(big.Int).SetUint64(uint64(h.Balance)))
	}
	if total.Sign() == 0 {
		return shares
	}

	amt := new(big.Int).SetUint64(uint64(amount))
	remainders := make([]*big.Int, len(holders))
	distributed := new(big.Int)
	for i, h := range holders {
		num := new(big.Int).Mul(amt, new(big.Int).SetUint64(uint64(h.Balance)))
		quo, rem := new(big.Int).QuoRem(num, total, new(big.Int))
		shares[i] = types.Balance(quo.Uint64())
		remainders[i] = rem
		distributed.Add(distributed, quo)
	}

	// Hand the leftover units to the largest remainders, one each.
	leftover := new(big.Int).Sub(amt, distributed).Uint64()
	if leftover == 0 {
		return shares
	}
	order := make([]int, len(holders))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].Cmp(remainders[order[b]]) > 0
	})
	for _, idx := range order[:leftover] {
		shares[idx]++
	}
	return shares
}
