package store

import (
	"github.com/stablemint/serpd/internal/core/types"
)

// Key prefixes for the persisted state layout. Balances sort by currency then
// account, so a prefix scan over one currency yields its holders in
// deterministic account order.
const (
	prefixBalance  = 'b'
	prefixReserved = 'r'
	prefixIssuance = 'i'
	prefixSwap     = 's'
	prefixPrice    = 'p'
)

const keySep = 0x00

func balanceKey(currency types.CurrencyID, account types.AccountID) []byte {
	k := make([]byte, 0, 2+len(currency)+1+len(account))
	k = append(k, prefixBalance, keySep)
	k = append(k, currency...)
	k = append(k, keySep)
	k = append(k, account...)
	return k
}

// balancePrefix is the scan prefix covering every holder of a currency.
func balancePrefix(currency types.CurrencyID) []byte {
	k := make([]byte, 0, 2+len(currency)+1)
	k = append(k, prefixBalance, keySep)
	k = append(k, currency...)
	k = append(k, keySep)
	return k
}

func reservedKey(currency types.CurrencyID, account types.AccountID) []byte {
	k := make([]byte, 0, 2+len(currency)+1+len(account))
	k = append(k, prefixReserved, keySep)
	k = append(k, currency...)
	k = append(k, keySep)
	k = append(k, account...)
	return k
}

// reservedPrefix is the scan prefix covering every reserver of a currency.
func reservedPrefix(currency types.CurrencyID) []byte {
	k := make([]byte, 0, 2+len(currency)+1)
	k = append(k, prefixReserved, keySep)
	k = append(k, currency...)
	k = append(k, keySep)
	return k
}

func issuanceKey(currency types.CurrencyID) []byte {
	k := make([]byte, 0, 2+len(currency))
	k = append(k, prefixIssuance, keySep)
	k = append(k, currency...)
	return k
}

// SwapKey is the persisted key for a swap record, exported for the swap
// engine which owns that table.
func SwapKey(id []byte) []byte {
	k := make([]byte, 0, 2+len(id))
	k = append(k, prefixSwap, keySep)
	k = append(k, id...)
	return k
}

// SwapKeyPrefix covers all swap records.
func SwapKeyPrefix() []byte {
	return []byte{prefixSwap, keySep}
}

// SwapKeyRange returns the iterator bounds covering all swap records.
func SwapKeyRange() (start, end []byte) {
	start = SwapKeyPrefix()
	return start, prefixEnd(start)
}

// PriceKey is the persisted key for a currency's active price point.
func PriceKey(currency types.CurrencyID) []byte {
	k := make([]byte, 0, 2+len(currency))
	k = append(k, prefixPrice, keySep)
	k = append(k, currency...)
	return k
}

// PriceKeyPrefix covers all price points.
func PriceKeyPrefix() []byte {
	return []byte{prefixPrice, keySep}
}

// prefixEnd returns the smallest key greater than every key with the given
// prefix, for use as an exclusive iterator upper bound.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
