// Package ledger implements the multi-currency ledger: transfer, mint, burn,
// slash, deposit/withdraw, and signed balance correction, with the invariant
// that the sum of account balances of a currency always equals its total
// issuance.
//
// Operations run against a store.View; the caller commits the view once a
// whole block of operations has been applied. Authorization is an external
// collaborator's concern — by the time an operation is invoked the caller is
// assumed to be entitled to it.
package ledger

import (
	"fmt"

	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
)

// Params is the ledger's immutable configuration, passed in at construction.
type Params struct {
	// NativeCurrency designates the currency whose operations delegate to
	// the native BasicCurrency implementation.
	NativeCurrency types.CurrencyID

	// RejectZeroTransfers makes zero-amount transfers fail with ErrZeroAmount
	// instead of succeeding as no-ops.
	RejectZeroTransfers bool

	// MinimumBalances holds optional per-currency existential floors,
	// reported through MinimumBalance.
	MinimumBalances map[types.CurrencyID]types.Balance
}

// Option customizes ledger construction.
type Option func(*Ledger)

// WithNativeCurrency replaces the default store-backed native implementation
// with an external single-currency asset lifted into the ledger interface.
func WithNativeCurrency(bc BasicCurrency) Option {
	return func(l *Ledger) { l.native = bc }
}

// Ledger dispatches every operation either to the native currency capability
// or to the shared multi-currency store, mirroring the native/alternate
// currency duality.
type Ledger struct {
	params Params
	native BasicCurrency
}

func New(params Params, opts ...Option) *Ledger {
	l := &Ledger{params: params}
	for _, opt := range opts {
		opt(l)
	}
	if l.native == nil {
		l.native = l.storeOps(params.NativeCurrency)
	}
	return l
}

// Params returns the ledger's configuration.
func (l *Ledger) Params() Params { return l.params }

// ops returns the capability serving the given currency.
func (l *Ledger) ops(currency types.CurrencyID) BasicCurrency {
	if currency == l.params.NativeCurrency {
		return l.native
	}
	return l.storeOps(currency)
}

func (l *Ledger) storeOps(currency types.CurrencyID) *storeCurrency {
	return &storeCurrency{
		currency:   currency,
		minBalance: l.params.MinimumBalances[currency],
		rejectZero: l.params.RejectZeroTransfers,
	}
}

// Balance returns the account's balance of the currency.
func (l *Ledger) Balance(v *store.View, account types.AccountID, currency types.CurrencyID) (types.Balance, error) {
	return l.ops(currency).Balance(v, account)
}

// Issuance returns the currency's total issuance.
func (l *Ledger) Issuance(v *store.View, currency types.CurrencyID) (types.Balance, error) {
	return l.ops(currency).Issuance(v)
}

// MinimumBalance returns the currency's existential floor (zero by default).
func (l *Ledger) MinimumBalance(currency types.CurrencyID) types.Balance {
	return l.ops(currency).MinimumBalance()
}

// Transfer moves amount from one account to another. Total issuance is
// unchanged. Fails with ErrInsufficientBalance if the payer cannot cover the
// amount, or ErrZeroAmount when zero transfers are rejected by policy.
func (l *Ledger) Transfer(v *store.View, from, to types.AccountID, currency types.CurrencyID, amount types.Balance) error {
	return l.ops(currency).Transfer(v, from, to, amount)
}

// Mint credits the account and increases total issuance.
func (l *Ledger) Mint(v *store.View, to types.AccountID, currency types.CurrencyID, amount types.Balance) error {
	return l.ops(currency).Deposit(v, to, amount)
}

// Burn debits the account and decreases total issuance. Fails with
// ErrInsufficientBalance if the account cannot cover the amount.
func (l *Ledger) Burn(v *store.View, from types.AccountID, currency types.CurrencyID, amount types.Balance) error {
	return l.ops(currency).Withdraw(v, from, amount)
}

// Deposit is the mint-equivalent wrapper used by external asset adapters.
func (l *Ledger) Deposit(v *store.View, to types.AccountID, currency types.CurrencyID, amount types.Balance) error {
	return l.ops(currency).Deposit(v, to, amount)
}

// Withdraw is the burn-equivalent wrapper used by external asset adapters.
func (l *Ledger) Withdraw(v *store.View, from types.AccountID, currency types.CurrencyID, amount types.Balance) error {
	return l.ops(currency).Withdraw(v, from, amount)
}

// Slash forcibly removes up to amount from the account, saturating at its
// balance, and returns the amount actually removed. It never fails on an
// underfunded account.
func (l *Ledger) Slash(v *store.View, account types.AccountID, currency types.CurrencyID, amount types.Balance) (types.Balance, error) {
	return l.ops(currency).Slash(v, account, amount)
}

// CanSlash reports whether the account could cover a full slash of amount.
func (l *Ledger) CanSlash(v *store.View, account types.AccountID, currency types.CurrencyID, amount types.Balance) bool {
	return l.ops(currency).CanSlash(v, account, amount)
}

// EnsureCanWithdraw fails with ErrInsufficientBalance if the account cannot
// cover a withdrawal of amount, without mutating anything.
func (l *Ledger) EnsureCanWithdraw(v *store.View, account types.AccountID, currency types.CurrencyID, amount types.Balance) error {
	return l.ops(currency).EnsureCanWithdraw(v, account, amount)
}

// ReservedBalance returns the account's reserved balance of the currency.
func (l *Ledger) ReservedBalance(v *store.View, account types.AccountID, currency types.CurrencyID) (types.Balance, error) {
	return l.ops(currency).ReservedBalance(v, account)
}

// CanReserve reports whether the account's free balance covers amount.
func (l *Ledger) CanReserve(v *store.View, account types.AccountID, currency types.CurrencyID, amount types.Balance) bool {
	return l.ops(currency).CanReserve(v, account, amount)
}

// Reserve moves amount from the account's free balance into its reserved
// balance. Reserved funds stay committed to the account but are excluded
// from transfers and holder iteration. Fails with ErrInsufficientBalance if
// the free balance cannot cover the amount.
func (l *Ledger) Reserve(v *store.View, account types.AccountID, currency types.CurrencyID, amount types.Balance) error {
	return l.ops(currency).Reserve(v, account, amount)
}

// Unreserve moves up to amount back from reserved to free, saturating at the
// reserved balance, and returns the amount actually moved.
func (l *Ledger) Unreserve(v *store.View, account types.AccountID, currency types.CurrencyID, amount types.Balance) (types.Balance, error) {
	return l.ops(currency).Unreserve(v, account, amount)
}

// SlashReserved forcibly removes up to amount from the account's reserved
// balance, decreasing issuance, and returns the amount actually removed.
func (l *Ledger) SlashReserved(v *store.View, account types.AccountID, currency types.CurrencyID, amount types.Balance) (types.Balance, error) {
	return l.ops(currency).SlashReserved(v, account, amount)
}

// RepatriateReserved moves up to amount from from's reserved balance into
// to's free balance and returns the amount actually moved.
func (l *Ledger) RepatriateReserved(v *store.View, from, to types.AccountID, currency types.CurrencyID, amount types.Balance) (types.Balance, error) {
	return l.ops(currency).RepatriateReserved(v, from, to, amount)
}

// UpdateBalance applies a signed administrative correction: positive deltas
// are mint-equivalent, negative deltas burn-equivalent. Fails with
// ErrUnderflow if the resulting balance would go negative.
func (l *Ledger) UpdateBalance(v *store.View, account types.AccountID, currency types.CurrencyID, delta types.Amount) error {
	return l.ops(currency).UpdateBalance(v, account, delta)
}

// MergeAccount drains every listed free currency balance of source into
// dest. Either all balances move or none do. Reserved balances stay with
// source so its outstanding commitments keep resolving against it.
func (l *Ledger) MergeAccount(v *store.View, source, dest types.AccountID, currencies []types.CurrencyID) error {
	sp := v.Savepoint()
	for _, currency := range currencies {
		bal, err := l.Balance(v, source, currency)
		if err != nil {
			v.Rollback(sp)
			return err
		}
		if bal == 0 {
			continue
		}
		if err := l.Transfer(v, source, dest, currency, bal); err != nil {
			v.Rollback(sp)
			return fmt.Errorf("merging %s balance: %w", currency, err)
		}
	}
	return nil
}

// CheckInvariant verifies that the free and reserved balances of the
// currency sum to its total issuance as seen through the view.
func (l *Ledger) CheckInvariant(v *store.View, currency types.CurrencyID) error {
	var sum types.Balance
	for _, list := range []func(types.CurrencyID) ([]store.Holder, error){v.Holders, v.ReservedHolders} {
		holders, err := list(currency)
		if err != nil {
			return err
		}
		for _, h := range holders {
			sum, err = types.AddBalance(sum, h.Balance)
			if err != nil {
				return err
			}
		}
	}
	issuance, err := v.GetIssuance(currency)
	if err != nil {
		return err
	}
	if sum != issuance {
		return fmt.Errorf("issuance invariant violated for %s: balances sum to %d, issuance is %d", currency, sum, issuance)
	}
	return nil
}
