// Package types defines the primitive identifiers and quantities shared by the
// ledger core: accounts, currencies, balances, signed amounts, and timestamps.
package types

import (
	"errors"
	"math"
)

// AccountID is an opaque account identifier. The core only relies on equality
// and lexicographic ordering (for deterministic holder iteration); the actual
// identity scheme is owned by an external collaborator.
type AccountID string

// CurrencyID identifies a fungible currency. One distinguished value is the
// native currency, designated by configuration.
type CurrencyID string

// Balance is a non-negative amount of a single currency.
type Balance uint64

// Amount is a signed balance delta, used by administrative corrections.
type Amount int64

// Timestamp is a ledger time marker in seconds. Deadline checks are pure
// comparisons against it; there is no scheduler-level cancellation.
type Timestamp uint64

// MaxBalance is the largest representable balance. Any operation that would
// push a balance or an issuance past it fails with an overflow error instead
// of wrapping.
const MaxBalance Balance = math.MaxUint64

var (
	// ErrOverflow is returned when a balance or issuance would exceed MaxBalance.
	ErrOverflow = errors.New("balance overflow")

	// ErrUnderflow is returned when a balance or issuance would go negative.
	ErrUnderflow = errors.New("balance underflow")
)

// AddBalance returns a+b, or ErrOverflow if the sum is not representable.
func AddBalance(a, b Balance) (Balance, error) {
	if b > MaxBalance-a {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// SubBalance returns a-b, or ErrUnderflow if b exceeds a.
func SubBalance(a, b Balance) (Balance, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Abs returns the magnitude of a signed amount as a Balance.
// The minimum int64 value is handled without overflow.
func (a Amount) Abs() Balance {
	if a >= 0 {
		return Balance(a)
	}
	if a == math.MinInt64 {
		return Balance(math.MaxInt64) + 1
	}
	return Balance(-a)
}

// IsPositive reports whether the amount credits the account.
func (a Amount) IsPositive() bool { return a > 0 }
